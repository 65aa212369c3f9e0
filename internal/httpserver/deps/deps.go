package deps

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/codealamode/imiimi/internal/bookmarks"
	"github.com/codealamode/imiimi/internal/logger"
	"github.com/codealamode/imiimi/internal/search"
)

type Deps struct {
	Logger      logger.Logger
	StartTime   time.Time
	Version     string
	Commit      string
	BuildDate   string
	GoVersion   string
	TimeNow     func() time.Time // for testing, defaults to time.Now
	RedisClient *redis.Client    // nil when running on the in-memory store
	Engine      *search.Engine
	Bookmarks   *bookmarks.Service
	PerPage     int
}
