// Package referencedata lists the states and cities seeded into storage.
package referencedata

// City is one seed row. InServiceArea=false cities resolve but are refused at signup.
type City struct {
	State         string
	UF            string
	Name          string
	InServiceArea bool
}

// Cities is the seed set shared by cmd/seed and the in-memory store.
var Cities = []City{
	{State: "São Paulo", UF: "SP", Name: "São Paulo", InServiceArea: true},
	{State: "São Paulo", UF: "SP", Name: "Campinas", InServiceArea: true},
	{State: "São Paulo", UF: "SP", Name: "Santos", InServiceArea: true},
	{State: "Rio de Janeiro", UF: "RJ", Name: "Rio de Janeiro", InServiceArea: true},
	{State: "Rio de Janeiro", UF: "RJ", Name: "Niterói", InServiceArea: true},
	{State: "Minas Gerais", UF: "MG", Name: "Belo Horizonte", InServiceArea: true},
	{State: "Paraná", UF: "PR", Name: "Curitiba", InServiceArea: true},
	{State: "Rio Grande do Sul", UF: "RS", Name: "Porto Alegre", InServiceArea: true},
	{State: "Bahia", UF: "BA", Name: "Salvador", InServiceArea: false},
	{State: "Pernambuco", UF: "PE", Name: "Recife", InServiceArea: false},
	{State: "Amazonas", UF: "AM", Name: "Manaus", InServiceArea: false},
}

