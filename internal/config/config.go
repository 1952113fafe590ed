package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/gwientjes/wall-cli/internal/wall"
)

// Config holds runtime settings for the wall client.
type Config struct {
	SupabaseURL string
	SupabaseKey string
	DBPath      string
	AuthorName  string

	Profile wall.SidebarProfile
}

// LoadFromEnv reads configuration from the environment. A .env file in
// the working directory is loaded first when present; real environment
// variables win over file values.
func LoadFromEnv() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		SupabaseURL: os.Getenv("WALL_SUPABASE_URL"),
		SupabaseKey: os.Getenv("WALL_SUPABASE_ANON_KEY"),
		DBPath:      os.Getenv("WALL_DB_PATH"),
		AuthorName:  os.Getenv("WALL_AUTHOR_NAME"),
		Profile:     defaultProfile(),
	}

	if cfg.DBPath == "" {
		cfg.DBPath = "wall.db"
	}
	if name := os.Getenv("WALL_PROFILE_NAME"); name != "" {
		cfg.Profile.Name = name
	}
	if subtitle := os.Getenv("WALL_PROFILE_SUBTITLE"); subtitle != "" {
		cfg.Profile.Subtitle = subtitle
	}
	if city := os.Getenv("WALL_PROFILE_CITY"); city != "" {
		cfg.Profile.City = city
	}
	if networks := os.Getenv("WALL_PROFILE_NETWORKS"); networks != "" {
		cfg.Profile.Networks = splitList(networks)
	}
	if cfg.AuthorName == "" {
		cfg.AuthorName = cfg.Profile.Name
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.SupabaseURL == "" {
		return errors.New("WALL_SUPABASE_URL is required")
	}
	if c.SupabaseKey == "" {
		return errors.New("WALL_SUPABASE_ANON_KEY is required")
	}
	if c.DBPath == "" {
		return errors.New("DBPath is required")
	}
	if c.SupabaseURL[len(c.SupabaseURL)-1] == '/' {
		return fmt.Errorf("WALL_SUPABASE_URL must not end with '/': %s", c.SupabaseURL)
	}
	if !strings.HasPrefix(c.SupabaseURL, "http://") && !strings.HasPrefix(c.SupabaseURL, "https://") {
		return fmt.Errorf("WALL_SUPABASE_URL must be http(s): %s", c.SupabaseURL)
	}
	return nil
}

func defaultProfile() wall.SidebarProfile {
	return wall.SidebarProfile{
		Name:     "Greg Wientjes",
		Subtitle: "Wall - Social Feed",
		Photo:    "profile-photo.jpg",
		Networks: []string{"Harvard", "CAPM"},
		City:     "San Francisco",
		Info:     "Full Stack Developer",
	}
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
