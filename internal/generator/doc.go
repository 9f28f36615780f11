// Package generator creates synthetic bank customers and card transactions.
//
// Customers get consecutive ids, a uniform age in [18, 70), a uniform gender
// and a city drawn from a weighted distribution. Each transaction picks a
// customer, a day offset and a category uniformly; its amount is normal with a
// per-category mean and deviation, floored at 10 and rounded to cents.
//
// Output is fully determined by the seed in config.GeneratorConfig.
package generator
