package domain

// User is the authenticated identity held by the session store.
type User struct {
	ID              string `json:"id"`
	Phone           string `json:"phone"`
	CountryCode     string `json:"countryCode"`
	IsAuthenticated bool   `json:"isAuthenticated"`
}

// Country is one entry of the dial-code selection list.
type Country struct {
	DisplayName string
	DialCode    string
	RegionCode  string
}

// SessionSnapshot is the persisted form of the session store.
type SessionSnapshot struct {
	User *User `json:"user"`
}
