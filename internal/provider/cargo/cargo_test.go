package cargo

import (
	"testing"

	"github.com/bgricker/flakehound/internal/provider"
	"github.com/stretchr/testify/assert"
)

var _ provider.Provider = (*Cargo)(nil)

func TestListInvocation(t *testing.T) {
	c := New("", "")
	inv := c.ListInvocation()
	assert.Equal(t, DefaultProgram, inv.Program)
	assert.Equal(t, []string{"test", "--", "--list"}, inv.Args)
}

func TestListInvocationWithFeatures(t *testing.T) {
	c := New("/opt/cargo", " serde tls ")
	inv := c.ListInvocation()
	assert.Equal(t, "/opt/cargo", inv.Program)
	assert.Equal(t, []string{"test", "--features", "serde tls", "--", "--list"}, inv.Args)
}

func TestTestInvocation(t *testing.T) {
	c := New("cargo", "tls")
	inv := c.TestInvocation("tls::settings::from_config")
	assert.Equal(t, []string{"test", "--features", "tls", "tls::settings::from_config"}, inv.Args)

	c.Exact = true
	inv = c.TestInvocation("tls::settings::from_config")
	assert.Equal(t, []string{"test", "--features", "tls", "tls::settings::from_config", "--", "--exact"}, inv.Args)
}

func TestInvocationCopiesEnv(t *testing.T) {
	c := New("cargo", "")
	c.Env = map[string]string{"RUST_BACKTRACE": "1"}
	c.Dir = "crate"

	inv := c.TestInvocation("a")
	inv.Env["RUST_BACKTRACE"] = "0"

	assert.Equal(t, "1", c.Env["RUST_BACKTRACE"])
	assert.Equal(t, "crate", inv.Dir)
}
