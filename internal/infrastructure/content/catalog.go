package content

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/catalog"
	"github.com/sourcegraph/conc/pool"
)

const configFile = "config.json"

type challengeConfig struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Password    string `json:"password"`
}

type ctfConfig struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Points      int      `json:"points"`
	Photo       *string  `json:"photo"`
	Links       []string `json:"links"`
	Hints       []string `json:"hints"`
	Flag        string   `json:"flag"`
}

type loadedChallenge struct {
	challenge catalog.Challenge
	ctfs      []catalog.CTF
}

// Catalog is an immutable in-memory view of the puzzle content tree.
type Catalog struct {
	challenges []catalog.Challenge
	byID       map[string]catalog.Challenge
	ctfs       map[string][]catalog.CTF
}

func NewCatalog(challenges []catalog.Challenge, ctfs []catalog.CTF) *Catalog {
	c := &Catalog{
		challenges: make([]catalog.Challenge, 0, len(challenges)),
		byID:       make(map[string]catalog.Challenge, len(challenges)),
		ctfs:       make(map[string][]catalog.CTF),
	}
	for _, item := range challenges {
		if _, exists := c.byID[item.ID]; exists {
			continue
		}
		c.byID[item.ID] = item
		c.challenges = append(c.challenges, item)
	}
	for _, item := range ctfs {
		c.ctfs[item.ChallengeID] = append(c.ctfs[item.ChallengeID], item)
	}
	return c
}

// LoadCatalog reads <dir>/<challenge>/config.json and
// <dir>/<challenge>/ctfs/<ctf>/config.json. Challenge directories are parsed
// concurrently; a directory without config.json is skipped.
func LoadCatalog(ctx context.Context, dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return NewCatalog(nil, nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read content dir: %w", err)
	}

	p := pool.NewWithResults[*loadedChallenge]().
		WithContext(ctx).
		WithCancelOnError().
		WithMaxGoroutines(runtime.GOMAXPROCS(0))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		challengeDir := filepath.Join(dir, entry.Name())
		p.Go(func(ctx context.Context) (*loadedChallenge, error) {
			return loadChallenge(ctx, challengeDir, entry.Name())
		})
	}
	loaded, err := p.Wait()
	if err != nil {
		return nil, err
	}

	challenges := make([]catalog.Challenge, 0, len(loaded))
	ctfs := make([]catalog.CTF, 0)
	for _, item := range loaded {
		if item == nil {
			continue
		}
		challenges = append(challenges, item.challenge)
		ctfs = append(ctfs, item.ctfs...)
	}
	slices.SortFunc(challenges, func(a, b catalog.Challenge) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortFunc(ctfs, func(a, b catalog.CTF) int {
		if c := cmp.Compare(a.ChallengeID, b.ChallengeID); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	return NewCatalog(challenges, ctfs), nil
}

func loadChallenge(ctx context.Context, dir, dirName string) (*loadedChallenge, error) {
	var cfg challengeConfig
	found, err := readConfig(filepath.Join(dir, configFile), &cfg)
	if err != nil || !found {
		return nil, err
	}

	challengeID := strings.TrimSpace(cfg.ID)
	if challengeID == "" {
		challengeID = dirName
	}
	out := &loadedChallenge{
		challenge: catalog.Challenge{
			ID:             challengeID,
			Name:           cfg.Name,
			Description:    cfg.Description,
			UnlockPassword: cfg.Password,
		},
	}

	ctfEntries, err := os.ReadDir(filepath.Join(dir, "ctfs"))
	if errors.Is(err, fs.ErrNotExist) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ctfs of %s: %w", challengeID, err)
	}

	for _, entry := range ctfEntries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.IsDir() {
			continue
		}
		var ctfCfg ctfConfig
		found, err := readConfig(filepath.Join(dir, "ctfs", entry.Name(), configFile), &ctfCfg)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		out.ctfs = append(out.ctfs, ctfCfg.toDomain(challengeID, entry.Name()))
	}
	return out, nil
}

func (c ctfConfig) toDomain(challengeID, dirName string) catalog.CTF {
	id := strings.TrimSpace(c.ID)
	if id == "" {
		id = dirName
	}
	photo := ""
	if c.Photo != nil {
		photo = *c.Photo
	}
	return catalog.CTF{
		ID:          id,
		ChallengeID: challengeID,
		Title:       c.Title,
		Description: c.Description,
		Points:      c.Points,
		Photo:       photo,
		Links:       c.Links,
		Hints:       c.Hints,
		Flag:        c.Flag,
	}
}

func readConfig(path string, dst any) (bool, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	if err := sonic.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", path, err)
	}
	return true, nil
}

func (c *Catalog) ResolveChallenge(_ context.Context, challengeID string) (catalog.Challenge, bool, error) {
	item, ok := c.byID[challengeID]
	return item, ok, nil
}

func (c *Catalog) ResolveCTF(_ context.Context, challengeID, ctfID string) (catalog.CTF, bool, error) {
	for _, item := range c.ctfs[challengeID] {
		if item.ID == ctfID {
			return item, true, nil
		}
	}
	return catalog.CTF{}, false, nil
}

func (c *Catalog) ListChallenges(context.Context) ([]catalog.Challenge, error) {
	return slices.Clone(c.challenges), nil
}

func (c *Catalog) ListCTFs(_ context.Context, challengeID string) ([]catalog.CTF, error) {
	out := slices.Clone(c.ctfs[challengeID])
	if out == nil {
		out = []catalog.CTF{}
	}
	return out, nil
}

// Size reports the number of challenges and puzzles loaded.
func (c *Catalog) Size() (challenges, ctfs int) {
	for _, items := range c.ctfs {
		ctfs += len(items)
	}
	return len(c.challenges), ctfs
}
