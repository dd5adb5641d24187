package git

import (
	"fmt"
	"strings"
	"time"
)

type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// String renders the signature the way trailers spell it: "Name <email>".
func (s Signature) String() string {
	return fmt.Sprintf("%s <%s>", s.Name, s.Email)
}

type Commit struct {
	Hash         string
	ParentHashes []string
	Author       Signature
	Committer    Signature
	Message      string

	// Changes is the number of paths changed relative to the first parent,
	// or the number of entries in the tree for a root commit.
	Changes int
}

func (c *Commit) Subject() string {
	subject, _, _ := strings.Cut(c.Message, "\n")
	return subject
}

// IsEmpty reports whether the commit carries no code change.
func (c *Commit) IsEmpty() bool {
	return c.Changes == 0
}

type Remote struct {
	Name string
	URLs []string
}
