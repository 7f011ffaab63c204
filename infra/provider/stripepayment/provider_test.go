package stripepayment_test

import (
	"log/slog"
	"testing"

	"github.com/amirasaad/marketplace/config"
	"github.com/amirasaad/marketplace/infra/provider/stripepayment"
	"github.com/amirasaad/marketplace/pkg/provider/payment"
	"github.com/stretchr/testify/require"
)

var _ payment.Gateway = (*stripepayment.Provider)(nil)

func TestConstructEventRequiresSigningSecret(t *testing.T) {
	p := stripepayment.New(&config.Stripe{ApiKey: "sk_test_x"}, slog.Default())
	_, err := p.ConstructEvent([]byte(`{}`), "t=1,v1=sig")
	require.Error(t, err)
}

func TestConstructEventRejectsBadSignature(t *testing.T) {
	p := stripepayment.New(&config.Stripe{
		ApiKey:        "sk_test_x",
		SigningSecret: "whsec_test",
	}, slog.Default())
	_, err := p.ConstructEvent([]byte(`{}`), "t=1,v1=bogus")
	require.Error(t, err)
}
