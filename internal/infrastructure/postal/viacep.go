// Package postal resolves Brazilian postal codes (CEP) through a
// ViaCEP-compatible provider and maps them onto reference cities.
package postal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrCepNotFound is returned by a Provider when it has no record for the CEP.
var ErrCepNotFound = errors.New("cep not found")

// Record is the subset of the provider payload the service uses
type Record struct {
	Cep      string `json:"cep"`
	Street   string `json:"street"`
	District string `json:"district"`
	City     string `json:"city"`
	UF       string `json:"uf"`
	IBGE     string `json:"ibge"`
}

// Provider looks up a normalised 8-digit CEP.
type Provider interface {
	Lookup(ctx context.Context, cep string) (*Record, error)
}

// ViaCEP implements Provider using the viacep.com.br JSON API
type ViaCEP struct {
	BaseURL string
	Client  *http.Client
}

func NewViaCEP(baseURL string, timeout time.Duration) *ViaCEP {
	return &ViaCEP{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

type viaCEPBody struct {
	Cep        string          `json:"cep"`
	Logradouro string          `json:"logradouro"`
	Bairro     string          `json:"bairro"`
	Localidade string          `json:"localidade"`
	UF         string          `json:"uf"`
	IBGE       string          `json:"ibge"`
	Erro       json.RawMessage `json:"erro"`
}

// notFound reports the provider's error flag, sent as either true or "true".
func (b viaCEPBody) notFound() bool {
	v := strings.Trim(strings.TrimSpace(string(b.Erro)), `"`)
	return strings.EqualFold(v, "true")
}

func (v *ViaCEP) Lookup(ctx context.Context, cep string) (*Record, error) {
	client := v.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}

	url := fmt.Sprintf("%s/ws/%s/json/", v.BaseURL, cep)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("viacep request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound:
		return nil, ErrCepNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("viacep: unexpected status %d", resp.StatusCode)
	}

	var body viaCEPBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("viacep decode: %w", err)
	}
	if body.notFound() || strings.TrimSpace(body.Localidade) == "" {
		return nil, ErrCepNotFound
	}

	return &Record{
		Cep:      cep,
		Street:   body.Logradouro,
		District: body.Bairro,
		City:     body.Localidade,
		UF:       strings.ToUpper(body.UF),
		IBGE:     body.IBGE,
	}, nil
}

var _ Provider = (*ViaCEP)(nil)
