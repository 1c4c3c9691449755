package config

import "testing"

func TestLoadFallsBackToDefaults(t *testing.T) {
	cfg := Load(MapSource{})
	defaults := Defaults()
	if cfg != defaults {
		t.Fatalf("expected empty source to yield defaults, got %+v", cfg)
	}
}

func TestLoadOverridesFromSource(t *testing.T) {
	src := MapSource{
		"crawler.thread.pool.size": "16",
		"crawler.max.pages":        "50",
		"crawler.respect.robots.txt": "false",
		"database.path":            "/tmp/custom.db",
	}
	cfg := Load(src)
	if cfg.CrawlerThreadPoolSize != 16 {
		t.Errorf("CrawlerThreadPoolSize = %d, want 16", cfg.CrawlerThreadPoolSize)
	}
	if cfg.CrawlerMaxPages != 50 {
		t.Errorf("CrawlerMaxPages = %d, want 50", cfg.CrawlerMaxPages)
	}
	if cfg.CrawlerRespectRobots {
		t.Error("CrawlerRespectRobots = true, want false")
	}
	if cfg.DatabasePath != "/tmp/custom.db" {
		t.Errorf("DatabasePath = %q, want /tmp/custom.db", cfg.DatabasePath)
	}
}

func TestLoadIgnoresUnparsableValues(t *testing.T) {
	src := MapSource{"crawler.max.pages": "not-a-number"}
	cfg := Load(src)
	if cfg.CrawlerMaxPages != Defaults().CrawlerMaxPages {
		t.Errorf("expected default to survive unparsable override, got %d", cfg.CrawlerMaxPages)
	}
}
