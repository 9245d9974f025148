package repocard

// Language colors resource and its fallback entry
const (
	DefaultColorsURL = "https://raw.githubusercontent.com/ozh/github-colors/master/colors.json"
	DefaultAPIBase   = "https://api.github.com"
	DefaultHTMLBase  = "https://github.com"

	UnknownLanguage = "Unknown"
	UnknownColor    = "#565656"

	// FallbackDescription replaces the description when metadata cannot be loaded
	FallbackDescription = "Failed to load repository info..."
)

// Owner is the repository owner as returned by the metadata API
type Owner struct {
	Login string `json:"login"`
}

// Source is the upstream of a forked repository
type Source struct {
	HTMLURL  string `json:"html_url"`
	FullName string `json:"full_name"`
}

// Repo is the subset of repository metadata a card shows
type Repo struct {
	HTMLURL     string  `json:"html_url"`
	Description string  `json:"description"`
	Name        string  `json:"name"`
	Owner       Owner   `json:"owner"`
	Stars       int     `json:"stargazers_count"`
	Forks       int     `json:"forks"`
	Language    string  `json:"language"`
	Fork        bool    `json:"fork"`
	Source      *Source `json:"source,omitempty"`
}

// Language is one entry of the colors resource
type Language struct {
	Color string `json:"color"`
	URL   string `json:"url"`
}

// Card is a repository ready to render
type Card struct {
	ID   string `json:"id"`
	Repo Repo   `json:"repo"`

	// LanguageColor is empty when the repository reports no language
	LanguageColor string `json:"language_color,omitempty"`

	// Fallback is set when Repo was synthesized from the id alone
	Fallback bool `json:"fallback"`
}
