// Package domain defines the typed descriptor records accepted by the
// graph loaders. Each entity kind has its own shape; descriptors are
// validated at the boundary before any Cypher runs.
package domain

// Company is a production company, keyed by name.
type Company struct {
	Name    string `yaml:"name"`
	Founded int    `yaml:"founded"`
	Country string `yaml:"country"`
}

// Movie is keyed by title. Genres reference the controlled genre
// vocabulary and must already be loaded when the movie is linked.
type Movie struct {
	Title    string   `yaml:"title"`
	Released int      `yaml:"released"`
	Tagline  string   `yaml:"tagline"`
	Genres   []string `yaml:"genres"`
}

// Character identity is the (name, movie) pair: two movies may each
// have a character with the same name as distinct nodes.
type Character struct {
	Name      string `yaml:"name"`
	Movie     string `yaml:"movie"`
	Archetype string `yaml:"archetype"`
}

// ActingCredit merges the person and links them to a character of the
// named movie.
type ActingCredit struct {
	Name        string   `yaml:"name"`
	Born        int      `yaml:"born"`
	Nationality string   `yaml:"nationality"`
	Character   string   `yaml:"character"`
	Movie       string   `yaml:"movie"`
	Roles       []string `yaml:"roles"`
	Year        int      `yaml:"year"`
}

// DirectingCredit merges the person and links them to an existing movie.
type DirectingCredit struct {
	Name  string `yaml:"name"`
	Movie string `yaml:"movie"`
	Year  int    `yaml:"year"`
}

// Review descriptors are append-only: every load of the same descriptor
// produces a new Review node with a fresh generated identity.
type Review struct {
	User    string `yaml:"user"`
	Movie   string `yaml:"movie"`
	Rating  int    `yaml:"rating"`
	Date    string `yaml:"date"`
	Comment string `yaml:"comment"`
}

// Follow records that Follower follows Followee. Since is applied only
// when the edge is first created; reloads never move it.
type Follow struct {
	Follower string `yaml:"follower"`
	Followee string `yaml:"followee"`
	Since    string `yaml:"since"`
}

// Release is a regional release event keyed by (region, date).
type Release struct {
	Movie  string `yaml:"movie"`
	Region string `yaml:"region"`
	Date   string `yaml:"date"`
}

// Version is an alternate cut keyed by label. The label is a
// best-effort unique key: no store constraint backs it.
type Version struct {
	Movie       string `yaml:"movie"`
	Label       string `yaml:"label"`
	ReleaseDate string `yaml:"release_date"`
}
