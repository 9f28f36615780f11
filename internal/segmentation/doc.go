// Package segmentation groups bank customers into behavioural segments.
//
// The pipeline has four stages, each usable on its own:
//
//	Aggregate    customers + transactions -> one FeatureVector per active customer
//	FitScaler    population mean and standard deviation per feature
//	Engine.Fit   k-means with k-means++ seeding and n_init restarts
//	Summarize    per-cluster raw feature means, then Interpret for labels
//
// Features are total_spend, avg_spend and tx_count. Customers without any
// transaction get no vector; the pipeline lists them in Result.Inactive.
//
// Standardization uses population statistics (denominator N). A dimension with
// zero standard deviation standardizes to 0 everywhere and is reported as
// degenerate rather than failing the run.
//
// Fitting is reproducible: restart r draws from a PCG stream seeded with
// (seed, r), assignment ties go to the lowest cluster index, and the best
// restart is the one with minimum inertia, ties going to the lowest restart
// index. Restarts run concurrently but the result does not depend on the
// worker count.
//
// Typical use:
//
//	seg, err := segmentation.NewSegmenter(cfg.Segmentation, logger)
//	if err != nil {
//	    return err
//	}
//	result, err := seg.Run(ctx, customers, transactions)
//	if err != nil {
//	    return err
//	}
//	for _, s := range result.Segments {
//	    fmt.Println(s.Describe())
//	}
package segmentation
