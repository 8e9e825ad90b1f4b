package graph

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/hannibalxking/movie-social-knowledge-graph/internal/domain"
	"github.com/hannibalxking/movie-social-knowledge-graph/internal/platform/logger"
	"github.com/hannibalxking/movie-social-knowledge-graph/internal/platform/neo4jdb"
)

// Integration tests run against a throwaway Neo4j with the GDS plugin;
// they wipe the configured database. Gated so `go test ./...` stays
// hermetic by default.
func integrationClient(t *testing.T) (*neo4jdb.Client, *logger.Logger) {
	t.Helper()
	if os.Getenv("INTEGRATION_TEST") != "1" {
		t.Skip("set INTEGRATION_TEST=1 to run graph integration tests")
	}
	if strings.TrimSpace(os.Getenv("NEO4J_URI")) == "" {
		t.Skip("NEO4J_URI not set")
	}

	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(log.Sync)

	client, err := neo4jdb.NewFromEnv(context.Background(), log)
	if err != nil {
		t.Fatalf("neo4jdb.NewFromEnv: %v", err)
	}
	t.Cleanup(func() { _ = client.Close(context.Background()) })
	return client, log
}

func wipeGraph(t *testing.T, ctx context.Context, client *neo4jdb.Client) {
	t.Helper()
	session := client.WriteSession(ctx)
	defer session.Close(ctx)
	res, err := session.Run(ctx, `MATCH (n) DETACH DELETE n`, nil)
	if err != nil {
		t.Fatalf("wipe graph: %v", err)
	}
	if _, err := res.Consume(ctx); err != nil {
		t.Fatalf("wipe graph: %v", err)
	}
}

func queryInt(t *testing.T, ctx context.Context, client *neo4jdb.Client, cypher string) int64 {
	t.Helper()
	session := client.ReadSession(ctx)
	defer session.Close(ctx)
	res, err := session.Run(ctx, cypher, nil)
	if err != nil {
		t.Fatalf("query %q: %v", cypher, err)
	}
	rec, err := res.Single(ctx)
	if err != nil {
		t.Fatalf("query %q: %v", cypher, err)
	}
	n, _ := rec.Values[0].(int64)
	return n
}

func queryString(t *testing.T, ctx context.Context, client *neo4jdb.Client, cypher string) string {
	t.Helper()
	session := client.ReadSession(ctx)
	defer session.Close(ctx)
	res, err := session.Run(ctx, cypher, nil)
	if err != nil {
		t.Fatalf("query %q: %v", cypher, err)
	}
	rec, err := res.Single(ctx)
	if err != nil {
		t.Fatalf("query %q: %v", cypher, err)
	}
	s, _ := rec.Values[0].(string)
	return s
}

func loadAll(t *testing.T, ctx context.Context, client *neo4jdb.Client, log *logger.Logger, ds *domain.Dataset) {
	t.Helper()
	if err := LoadReferenceData(ctx, client, log, ds.Genres, ds.Companies); err != nil {
		t.Fatalf("LoadReferenceData: %v", err)
	}
	if err := LoadMovies(ctx, client, log, ds.Movies); err != nil {
		t.Fatalf("LoadMovies: %v", err)
	}
	if err := LoadPeople(ctx, client, log, ds.Characters, ds.Actors, ds.Directors); err != nil {
		t.Fatalf("LoadPeople: %v", err)
	}
	if err := LoadSocial(ctx, client, log, ds.Users, ds.Reviews, ds.Follows); err != nil {
		t.Fatalf("LoadSocial: %v", err)
	}
	if err := LoadTemporal(ctx, client, log, ds.Releases, ds.Versions); err != nil {
		t.Fatalf("LoadTemporal: %v", err)
	}
}

func TestLoadIsIdempotentExceptReviews(t *testing.T) {
	client, log := integrationClient(t)
	ctx := context.Background()
	wipeGraph(t, ctx, client)
	if err := EnsureSchema(ctx, client, log); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	ds, err := domain.SampleDataset()
	if err != nil {
		t.Fatalf("SampleDataset: %v", err)
	}

	loadAll(t, ctx, client, log, ds)
	nodes1 := queryInt(t, ctx, client, `MATCH (n) WHERE NOT n:Review RETURN count(n)`)
	rels1 := queryInt(t, ctx, client, `MATCH ()-[r]->() WHERE NOT type(r) IN ['WROTE', 'FOR_MOVIE'] RETURN count(r)`)
	reviews1 := queryInt(t, ctx, client, `MATCH (r:Review) RETURN count(r)`)

	loadAll(t, ctx, client, log, ds)
	nodes2 := queryInt(t, ctx, client, `MATCH (n) WHERE NOT n:Review RETURN count(n)`)
	rels2 := queryInt(t, ctx, client, `MATCH ()-[r]->() WHERE NOT type(r) IN ['WROTE', 'FOR_MOVIE'] RETURN count(r)`)
	reviews2 := queryInt(t, ctx, client, `MATCH (r:Review) RETURN count(r)`)

	if nodes1 != nodes2 {
		t.Fatalf("reload changed node count: %d -> %d", nodes1, nodes2)
	}
	if rels1 != rels2 {
		t.Fatalf("reload changed relationship count: %d -> %d", rels1, rels2)
	}
	if reviews2 != 2*reviews1 {
		t.Fatalf("reviews should accumulate per load: %d then %d", reviews1, reviews2)
	}
}

func TestReloadRefreshesMutableAttributes(t *testing.T) {
	client, log := integrationClient(t)
	ctx := context.Background()
	wipeGraph(t, ctx, client)
	if err := EnsureSchema(ctx, client, log); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	load := func(founded int, tagline string, roles []string, year int, versionDate string) {
		t.Helper()
		if err := LoadReferenceData(ctx, client, log, []string{"Sci-Fi"},
			[]domain.Company{{Name: "Warner Bros.", Founded: founded, Country: "US"}}); err != nil {
			t.Fatalf("LoadReferenceData: %v", err)
		}
		if err := LoadMovies(ctx, client, log,
			[]domain.Movie{{Title: "Inception", Released: 2010, Tagline: tagline, Genres: []string{"Sci-Fi"}}}); err != nil {
			t.Fatalf("LoadMovies: %v", err)
		}
		if err := LoadPeople(ctx, client, log,
			[]domain.Character{{Name: "Cobb", Movie: "Inception", Archetype: "Hero"}},
			[]domain.ActingCredit{{Name: "Leonardo DiCaprio", Born: 1974, Nationality: "US",
				Character: "Cobb", Movie: "Inception", Roles: roles, Year: year}},
			nil); err != nil {
			t.Fatalf("LoadPeople: %v", err)
		}
		if err := LoadTemporal(ctx, client, log,
			[]domain.Release{{Movie: "Inception", Region: "US", Date: "2010-07-16"}},
			[]domain.Version{{Movie: "Inception", Label: "Director's Cut", ReleaseDate: versionDate}}); err != nil {
			t.Fatalf("LoadTemporal: %v", err)
		}
	}

	load(1923, "Your mind is the scene of the crime", []string{"Cobb"}, 2010, "2020-11-01")
	nodes1 := queryInt(t, ctx, client, `MATCH (n) RETURN count(n)`)
	rels1 := queryInt(t, ctx, client, `MATCH ()-[r]->() RETURN count(r)`)

	// Same keys, changed non-key attributes everywhere.
	load(1925, "The dream is real", []string{"Dom Cobb"}, 2011, "2021-06-01")

	if nodes2 := queryInt(t, ctx, client, `MATCH (n) RETURN count(n)`); nodes2 != nodes1 {
		t.Fatalf("attribute refresh changed node count: %d -> %d", nodes1, nodes2)
	}
	if rels2 := queryInt(t, ctx, client, `MATCH ()-[r]->() RETURN count(r)`); rels2 != rels1 {
		t.Fatalf("attribute refresh changed relationship count: %d -> %d", rels1, rels2)
	}

	if got := queryString(t, ctx, client, `MATCH (m:Movie {title:'Inception'}) RETURN m.tagline`); got != "The dream is real" {
		t.Fatalf("movie tagline not refreshed: %q", got)
	}
	if got := queryInt(t, ctx, client, `MATCH (co:Company {name:'Warner Bros.'}) RETURN co.founded`); got != 1925 {
		t.Fatalf("company founded not refreshed: %d", got)
	}
	if got := queryString(t, ctx, client,
		`MATCH (:Person {name:'Leonardo DiCaprio'})-[a:ACTED_AS]->(:Character {name:'Cobb', movie:'Inception'}) RETURN a.roles[0]`); got != "Dom Cobb" {
		t.Fatalf("acting roles not refreshed: %q", got)
	}
	if got := queryInt(t, ctx, client,
		`MATCH (:Person {name:'Leonardo DiCaprio'})-[a:ACTED_AS]->(:Character {name:'Cobb', movie:'Inception'}) RETURN a.year`); got != 2011 {
		t.Fatalf("acting year not refreshed: %d", got)
	}

	// The denormalized HAS_VERSION copy must move with the node.
	if got := queryString(t, ctx, client,
		`MATCH (v:Version {label:"Director's Cut"}) RETURN toString(v.releaseDate)`); got != "2021-06-01" {
		t.Fatalf("version releaseDate not refreshed: %q", got)
	}
	if got := queryString(t, ctx, client,
		`MATCH (:Movie)-[e:HAS_VERSION]->(:Version {label:"Director's Cut"}) RETURN toString(e.releaseDate)`); got != "2021-06-01" {
		t.Fatalf("HAS_VERSION edge releaseDate did not move with the node: %q", got)
	}
	if diverged := queryInt(t, ctx, client, `
MATCH (:Movie)-[e:RELEASED_IN]->(rel:Release)
WHERE e.region <> rel.region OR e.date <> rel.date
RETURN count(e)`); diverged != 0 {
		t.Fatalf("%d RELEASED_IN edges diverged from their release node after reload", diverged)
	}
}

func TestReviewsAccumulatePerLoad(t *testing.T) {
	client, log := integrationClient(t)
	ctx := context.Background()
	wipeGraph(t, ctx, client)
	if err := EnsureSchema(ctx, client, log); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	if err := LoadReferenceData(ctx, client, log, []string{"Sci-Fi"}, nil); err != nil {
		t.Fatalf("LoadReferenceData: %v", err)
	}
	if err := LoadMovies(ctx, client, log, []domain.Movie{{Title: "Inception", Released: 2010, Genres: []string{"Sci-Fi"}}}); err != nil {
		t.Fatalf("LoadMovies: %v", err)
	}

	review := []domain.Review{{User: "Alice", Movie: "Inception", Rating: 5, Date: "2021-01-01", Comment: "Mind-blowing!"}}
	const n = 3
	for i := 0; i < n; i++ {
		if err := LoadSocial(ctx, client, log, []string{"Alice"}, review, nil); err != nil {
			t.Fatalf("LoadSocial run %d: %v", i+1, err)
		}
	}

	got := queryInt(t, ctx, client, `MATCH (:User {name:'Alice'})-[:WROTE]->(r:Review)-[:FOR_MOVIE]->(:Movie {title:'Inception'}) RETURN count(r)`)
	if got != n {
		t.Fatalf("expected %d linked reviews after %d loads, got %d", n, n, got)
	}
}

func TestFollowSinceFirstObservationWins(t *testing.T) {
	client, log := integrationClient(t)
	ctx := context.Background()
	wipeGraph(t, ctx, client)
	if err := EnsureSchema(ctx, client, log); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	users := []string{"Alice", "Bob"}
	if err := LoadSocial(ctx, client, log, users, nil, []domain.Follow{{Follower: "Alice", Followee: "Bob", Since: "2021-03-01"}}); err != nil {
		t.Fatalf("first load: %v", err)
	}
	if err := LoadSocial(ctx, client, log, users, nil, []domain.Follow{{Follower: "Alice", Followee: "Bob", Since: "2023-12-31"}}); err != nil {
		t.Fatalf("second load: %v", err)
	}

	since := queryString(t, ctx, client, `MATCH (:User {name:'Alice'})-[f:FOLLOWS]->(:User {name:'Bob'}) RETURN toString(f.since)`)
	if since != "2021-03-01" {
		t.Fatalf("since moved on reload: got %s", since)
	}
	edges := queryInt(t, ctx, client, `MATCH (:User {name:'Alice'})-[f:FOLLOWS]->(:User {name:'Bob'}) RETURN count(f)`)
	if edges != 1 {
		t.Fatalf("expected a single FOLLOWS edge, got %d", edges)
	}
}

func TestLoadersFailOnMissingDependencies(t *testing.T) {
	client, log := integrationClient(t)
	ctx := context.Background()
	wipeGraph(t, ctx, client)
	if err := EnsureSchema(ctx, client, log); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	// Relationship loading before any movie exists.
	err := LoadPeople(ctx, client, log,
		[]domain.Character{{Name: "Cobb", Movie: "Inception", Archetype: "Hero"}}, nil, nil)
	if !errors.Is(err, ErrDependencyViolation) {
		t.Fatalf("expected dependency violation, got %v", err)
	}

	// Movie linking to a genre that was never loaded.
	err = LoadMovies(ctx, client, log, []domain.Movie{{Title: "Inception", Genres: []string{"Sci-Fi"}}})
	if !errors.Is(err, ErrDependencyViolation) {
		t.Fatalf("expected dependency violation, got %v", err)
	}

	// The failed unit of work must leave no partial state behind.
	if n := queryInt(t, ctx, client, `MATCH (m:Movie) RETURN count(m)`); n != 0 {
		t.Fatalf("aborted load left %d movie nodes behind", n)
	}
}

func TestDenormalizedEdgeKeysStayConsistent(t *testing.T) {
	client, log := integrationClient(t)
	ctx := context.Background()
	wipeGraph(t, ctx, client)
	if err := EnsureSchema(ctx, client, log); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	if err := LoadReferenceData(ctx, client, log, []string{"Sci-Fi"}, nil); err != nil {
		t.Fatalf("LoadReferenceData: %v", err)
	}
	if err := LoadMovies(ctx, client, log, []domain.Movie{{Title: "Interstellar", Released: 2014, Genres: []string{"Sci-Fi"}}}); err != nil {
		t.Fatalf("LoadMovies: %v", err)
	}
	if err := LoadTemporal(ctx, client, log,
		[]domain.Release{{Movie: "Interstellar", Region: "US", Date: "2014-11-07"}},
		[]domain.Version{{Movie: "Interstellar", Label: "4K Remaster", ReleaseDate: "2020-11-01"}}); err != nil {
		t.Fatalf("LoadTemporal: %v", err)
	}

	diverged := queryInt(t, ctx, client, `
MATCH (:Movie)-[e:RELEASED_IN]->(rel:Release)
WHERE e.region <> rel.region OR e.date <> rel.date
RETURN count(e)`)
	if diverged != 0 {
		t.Fatalf("%d RELEASED_IN edges diverged from their release node", diverged)
	}
	diverged = queryInt(t, ctx, client, `
MATCH (:Movie)-[e:HAS_VERSION]->(v:Version)
WHERE e.releaseDate <> v.releaseDate
RETURN count(e)`)
	if diverged != 0 {
		t.Fatalf("%d HAS_VERSION edges diverged from their version node", diverged)
	}
}
