package update

// View is the display model of an update.
type View struct {
	Subject         string       `json:"subject" yaml:"subject"`
	FinalMessage    string       `json:"final_message" yaml:"final_message"`
	RichMessage     string       `json:"rich_message" yaml:"rich_message"`
	ChangelogLink   string       `json:"changelog_link,omitempty" yaml:"changelog_link,omitempty"`
	ChangelogMarkup string       `json:"changelog_markup" yaml:"changelog_markup"`
	Reviewed        bool         `json:"reviewed" yaml:"reviewed"`
	Editing         bool         `json:"editing,omitempty" yaml:"editing,omitempty"`
	Commits         []CommitView `json:"commits" yaml:"commits"`
	Actions         []Action     `json:"actions" yaml:"actions"`
	MissingAuthors  []string     `json:"missing_coauthors,omitempty" yaml:"missing_coauthors,omitempty"`
}

type CommitView struct {
	Hash        string `json:"hash" yaml:"hash"`
	Subject     string `json:"subject" yaml:"subject"`
	Author      string `json:"author" yaml:"author"`
	Kind        Kind   `json:"kind" yaml:"kind"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// NewView builds the display model of u. lastUsed is the catalog index of the
// most recently applied review action, or -1.
func NewView(u *Update, catalog []Action, lastUsed int) View {
	link, _ := u.ChangelogLink()
	v := View{
		Subject:         u.Subject,
		FinalMessage:    u.FinalMessage(),
		RichMessage:     u.RichMessage(),
		ChangelogLink:   link,
		ChangelogMarkup: u.ChangelogMarkup(),
		Reviewed:        u.Reviewed(),
		Editing:         u.Editing(),
		Actions:         ApplicableActions(catalog, lastUsed, u.FinalMessage()),
		MissingAuthors:  MissingCoauthors(u),
	}
	for _, c := range u.commits {
		v.Commits = append(v.Commits, CommitView{
			Hash:        c.Hash,
			Subject:     c.Subject(),
			Author:      c.Author.String(),
			Kind:        KindOf(c),
			Description: Describe(c),
		})
	}
	return v
}

// NewViews builds display models for updates in order.
func NewViews(updates []*Update, catalog []Action, lastUsed int) []View {
	views := make([]View, 0, len(updates))
	for _, u := range updates {
		views = append(views, NewView(u, catalog, lastUsed))
	}
	return views
}
