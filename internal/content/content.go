// Package content loads the site's copy: hero roles, about text, skills,
// experience, projects, blog posts and contact links.
package content

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// ErrNoRoles is returned when the content declares no hero roles.
var ErrNoRoles = errors.New("content: no hero roles")

type Site struct {
	Owner    Owner     `yaml:"owner"`
	Hero     Hero      `yaml:"hero"`
	About    About     `yaml:"about"`
	Projects []Project `yaml:"projects"`
	Posts    []Post    `yaml:"posts"`
	Contact  Contact   `yaml:"contact"`
}

type Owner struct {
	Name  string `yaml:"name"`
	Brand string `yaml:"brand"`
	Logo  string `yaml:"logo"`
}

type Hero struct {
	Greeting string   `yaml:"greeting"`
	Roles    []string `yaml:"roles"`
	Intro    string   `yaml:"intro"`
	Image    string   `yaml:"image"`

	// UppercaseRoles renders every role upper-cased, as the hero heading does.
	UppercaseRoles bool `yaml:"uppercase_roles"`
}

type About struct {
	Summary     string       `yaml:"summary"`
	Image       string       `yaml:"image"`
	Skills      []string     `yaml:"skills"`
	Experiences []Experience `yaml:"experiences"`
}

type Experience struct {
	Title   string   `yaml:"title"`
	Company string   `yaml:"company"`
	Bullets []string `yaml:"bullets"`
}

type Project struct {
	ID          int      `yaml:"id"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags"`
	Image       string   `yaml:"image"`
	Link        string   `yaml:"link"`
	Featured    bool     `yaml:"featured"`
}

// InProgress reports whether the project has no public link yet.
func (p Project) InProgress() bool {
	return p.Link == "" || p.Link == "#"
}

type Post struct {
	ID       int    `yaml:"id"`
	Title    string `yaml:"title"`
	Excerpt  string `yaml:"excerpt"`
	Date     string `yaml:"date"`
	Category string `yaml:"category"`
	ReadTime string `yaml:"read_time"`
}

type Contact struct {
	Email        string `yaml:"email"`
	GitHub       string `yaml:"github"`
	LinkedIn     string `yaml:"linkedin"`
	Availability string `yaml:"availability"`
	Placeholder  string `yaml:"placeholder"`
}

// Parse decodes and normalises site content.
func Parse(data []byte) (*Site, error) {
	var s Site
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	if err := s.normalize(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load reads content from path, or parses fallback when path is empty.
func Load(path string, fallback []byte) (*Site, error) {
	if path == "" {
		return Parse(fallback)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content %s: %w", path, err)
	}
	return Parse(data)
}

func (s *Site) normalize() error {
	roles := make([]string, 0, len(s.Hero.Roles))
	upper := cases.Upper(language.English)
	for _, r := range s.Hero.Roles {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if s.Hero.UppercaseRoles {
			r = upper.String(r)
		}
		roles = append(roles, r)
	}
	if len(roles) == 0 {
		return ErrNoRoles
	}
	s.Hero.Roles = roles
	if s.Owner.Brand == "" {
		s.Owner.Brand = upper.String(s.Owner.Name)
	}
	return nil
}

// FeaturedProjects returns the projects marked featured, in order.
func (s *Site) FeaturedProjects() []Project {
	var out []Project
	for _, p := range s.Projects {
		if p.Featured {
			out = append(out, p)
		}
	}
	return out
}

// Project looks a project up by id.
func (s *Site) Project(id int) (Project, bool) {
	for _, p := range s.Projects {
		if p.ID == id {
			return p, true
		}
	}
	return Project{}, false
}
