package templates

// BaseProps contains common properties shared across all pages
type BaseProps struct {
	CSRFToken string
	Flashes   []string
}

// NavbarProps contains properties for the navigation bar
type NavbarProps struct {
	CSRFToken string
	SignedIn  bool
	FullName  string
	AvatarURL string
}

// OAuthProvider represents an enabled identity provider
type OAuthProvider struct {
	Name        string
	DisplayName string
}

// LinkedService is one configured provider link shown on the account page
type LinkedService struct {
	Provider    string
	DisplayName string
	Username    string
	AvatarURL   string
}

// ===== Page Props Structures =====

// ErrorPageProps contains properties for the error page
type ErrorPageProps struct {
	BaseProps
	Navbar  NavbarProps
	Error   string
	Message string
}

// SignInPageProps contains properties for the sign-in page
type SignInPageProps struct {
	BaseProps
	Error          string
	Email          string
	Target         string
	OAuthProviders []OAuthProvider
}

// JoinPageProps contains properties for the registration page
type JoinPageProps struct {
	BaseProps
	Error          string
	FirstName      string
	LastName       string
	Email          string
	Target         string
	OAuthProviders []OAuthProvider
}

// ConfirmPageProps contains properties for the federated sign-in
// confirmation page. Values are prefilled from the provider profile or
// echo what the user submitted.
type ConfirmPageProps struct {
	BaseProps
	Error        string
	Provider     string
	ProviderName string
	Username     string
	AvatarURL    string
	FirstName    string
	LastName     string
	Email        string
	Website      string
	Target       string
}

// AccountPageProps contains properties for the signed-in landing page
type AccountPageProps struct {
	BaseProps
	Navbar             NavbarProps
	FirstName          string
	LastName           string
	Email              string
	Website            string
	IsAdmin            bool
	Services           []LinkedService
	AvailableProviders []OAuthProvider
}
