package model

// Issuer is the static identity of the shop printed on every document.
type Issuer struct {
	Name           string
	Address        string
	Phone          string
	Email          string
	RegistrationNo string
	VATNo          string
	IssueLocation  string
}
