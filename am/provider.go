package am

import (
	"github.com/spf13/viper"

	"github.com/teranos/annogen/plugin"
)

// Provider hands each processor its [processors.<name>] table.
type Provider struct {
	v *viper.Viper
}

// NewProvider wraps a loaded Viper instance, see GetViper.
func NewProvider(v *viper.Viper) *Provider {
	return &Provider{v: v}
}

// GetProcessorConfig implements plugin.ConfigProvider. A processor without a
// table gets nil, which plugin.Services turns into an empty configuration.
func (p *Provider) GetProcessorConfig(name string) plugin.Config {
	if p == nil || p.v == nil {
		return nil
	}
	if sub := p.v.Sub("processors." + name); sub != nil {
		return sub
	}
	return nil
}
