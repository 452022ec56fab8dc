// Package providers contains the generic authorization-code provider
// and its form-encoded token exchanger. Concrete providers live in the
// spotify, reddit and twitter subpackages.
package providers
