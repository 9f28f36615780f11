// Package app assembles the segmentation API server: it builds the segmenter
// from configuration, loads the dataset into a SegmentService, mounts the
// chi router with its middleware chain and owns the http.Server lifecycle.
//
// Run blocks until SIGINT or SIGTERM. SIGHUP re-reads the data directory and
// swaps in a fresh segmentation without dropping connections.
package app
