package mask

import (
	"github.com/cwbudde/algo-abund/spectrum"
	"github.com/cwbudde/algo-abund/stellar"
)

// Set holds the three pixel selectors of one spectrum.
type Set struct {
	Metallicity spectrum.Mask
	Alpha       spectrum.Mask
	General     spectrum.Mask
}

// Provider loads window definitions from disk and builds mask sets.
type Provider struct {
	metallicity string
	alpha       string
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithNames overrides the metallicity and alpha definition names.
func WithNames(metallicity, alpha string) ProviderOption {
	return func(p *Provider) {
		if metallicity != "" {
			p.metallicity = metallicity
		}
		if alpha != "" {
			p.alpha = alpha
		}
	}
}

// NewProvider returns a Provider reading MetallicityName and AlphaName.
func NewProvider(opts ...ProviderOption) *Provider {
	p := &Provider{metallicity: MetallicityName, alpha: AlphaName}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// LoadMasks reads both definitions for mode under root and constructs the
// metallicity, alpha and general masks of s.
func (p *Provider) LoadMasks(s *spectrum.Spectrum, mode stellar.Mode, root string) (Set, error) {
	fe, err := Load(p.metallicity, mode, root)
	if err != nil {
		return Set{}, err
	}
	alpha, err := Load(p.alpha, mode, root)
	if err != nil {
		return Set{}, err
	}
	return Set{
		Metallicity: Construct(s, fe),
		Alpha:       Construct(s, alpha),
		General:     Construct(s, nil),
	}, nil
}
