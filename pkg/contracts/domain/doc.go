// Package domain holds the record types shared by every stage of the bank
// analytics tooling: customers, transactions and their join.
//
// Records are created once by the generator (or loaded from CSV) and treated
// as immutable afterwards. Stages receive slices of these values and return
// new values rather than mutating their input.
package domain
