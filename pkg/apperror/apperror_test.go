package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind_Status(t *testing.T) {
	cases := map[Kind]int{
		KindPostalCodeNotFound:    http.StatusNotFound,
		KindCityNotFound:          http.StatusNotFound,
		KindCityOutOfServiceRange: http.StatusUnprocessableEntity,
		KindInvalidFieldKeys:      http.StatusBadRequest,
		KindInvalidFieldValue:     http.StatusBadRequest,
		KindIdentityNotResolved:   http.StatusNotFound,
		KindUnauthorized:          http.StatusUnauthorized,
		KindEmailTaken:            http.StatusConflict,
		KindUnknown:               http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.Status(), kind.String())
	}
}

func TestKindOf_WrappedChain(t *testing.T) {
	err := fmt.Errorf("signup: %w", PostalCodeNotFound("99999999"))

	assert.Equal(t, KindPostalCodeNotFound, KindOf(err))
	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))
	assert.Equal(t, KindUnknown, KindOf(nil))

	e, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, map[string]string{"cep": "99999999"}, e.Details)
}

func TestError_MessageAndUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(KindUnknown, "lookup failed", cause)

	assert.Equal(t, "lookup failed: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "invalid keys: role, admin", InvalidFieldKeys([]string{"role", "admin"}, nil).Error())
}
