package abr

import "strings"

type payloadSearchResults struct {
	Response Response `xml:"response"`
}

// Response is the response element of an ABRPayloadSearchResults document.
type Response struct {
	Exception      *Exception      `xml:"exception"`
	BusinessEntity *BusinessEntity `xml:"businessEntity"`
}

// Exception is a service-reported error such as an unknown or invalid ABN.
type Exception struct {
	Description string `xml:"exceptionDescription"`
	Code        string `xml:"exceptionCode"`
}

// BusinessEntity holds the names registered against an ABN.
type BusinessEntity struct {
	MainTradingName []OrganisationName `xml:"mainTradingName"`
	MainName        *OrganisationName  `xml:"mainName"`
}

// OrganisationName wraps the organisationName element used by several name fields.
type OrganisationName struct {
	Name string `xml:"organisationName"`
}

// TradingName returns the first registered trading name, if any.
func (e *BusinessEntity) TradingName() (string, bool) {
	if e == nil || len(e.MainTradingName) == 0 {
		return "", false
	}
	name := strings.TrimSpace(e.MainTradingName[0].Name)
	return name, name != ""
}

// EntityName returns the entity's main name, if present.
func (e *BusinessEntity) EntityName() (string, bool) {
	if e == nil || e.MainName == nil {
		return "", false
	}
	name := strings.TrimSpace(e.MainName.Name)
	return name, name != ""
}
