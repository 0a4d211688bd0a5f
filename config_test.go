// SPDX-License-Identifier: GPL-3.0-or-later

package abxclient

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	require.NotNil(t, cfg)

	_, ok := cfg.Dialer.(*net.Dialer)
	assert.True(t, ok, "Dialer should be *net.Dialer")

	assert.Equal(t, "", cfg.ErrClassifier.Classify(nil))
	assert.Equal(t, 5*time.Second, cfg.ReadTimeout)
	assert.Equal(t, "udp", cfg.DNSProtocol)
	assert.False(t, cfg.DNSServer.IsValid())
	assert.Same(t, net.DefaultResolver, cfg.Resolver)
	assert.False(t, cfg.TimeNow().IsZero())
}
