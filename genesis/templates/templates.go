package templates

import (
	"errors"
	"fmt"
	"path/filepath"
)

// All is the set of templates the genesis transactions are validated against.
type All struct {
	ValidityPredicates *ValidityPredicates
	Balances           *DenominatedBalances
	Parameters         *Parameters
}

/*
Load reads all the templates from the directory using the default file names.
*/
func Load(dir string) (*All, error) {
	vps, err := LoadValidityPredicates(filepath.Join(dir, ValidityPredicatesFileName))
	if err != nil {
		return nil, fmt.Errorf("loading validity predicates: %w", err)
	}
	balances, err := LoadBalances(filepath.Join(dir, BalancesFileName))
	if err != nil {
		return nil, fmt.Errorf("loading balances: %w", err)
	}
	params, err := LoadParameters(filepath.Join(dir, ParametersFileName))
	if err != nil {
		return nil, fmt.Errorf("loading parameters: %w", err)
	}
	all := &All{ValidityPredicates: vps, Balances: balances, Parameters: params}
	if err := all.Validate(); err != nil {
		return nil, err
	}
	return all, nil
}

// Validate checks the consistency of the templates with each other.
func (a *All) Validate() error {
	var errs []error
	if err := a.Parameters.CheckTokens(a.Balances); err != nil {
		errs = append(errs, err)
	}
	for _, vp := range a.Parameters.Parameters.VpAllowlist {
		if !a.ValidityPredicates.Contains(vp) {
			errs = append(errs, fmt.Errorf("allowlisted validity predicate %q not found", vp))
		}
	}
	return errors.Join(errs...)
}
