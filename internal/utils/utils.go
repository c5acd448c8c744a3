package utils

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
)

// ParseDurationEnv reads a duration setting. Plain integers are seconds
// ("10" is 10s), anything else goes through time.ParseDuration. Surrounding
// quotes left by .env files are ignored. Negative values are rejected.
func ParseDurationEnv(s string) (time.Duration, error) {
	v := strings.Trim(strings.TrimSpace(s), `"'`)
	if v == "" {
		return 0, errors.New("empty duration")
	}

	var d time.Duration
	if secs, err := strconv.ParseUint(v, 10, 32); err == nil {
		d = time.Duration(secs) * time.Second
	} else if d, err = time.ParseDuration(v); err != nil {
		return 0, fmt.Errorf("duration %q: want 10s, 5m or whole seconds", v)
	}
	if d < 0 {
		return 0, fmt.Errorf("duration %q is negative", v)
	}
	return d, nil
}

// ParseRedisURL splits a redis:// or rediss:// URL into the address,
// password and database number used for REDIS_ADDR/PASSWORD/DB.
func ParseRedisURL(s string) (addr, password string, db int, err error) {
	opts, err := redis.ParseURL(strings.TrimSpace(s))
	if err != nil {
		return "", "", 0, fmt.Errorf("parse redis url: %w", err)
	}
	return opts.Addr, opts.Password, opts.DB, nil
}

// SplitList splits a comma separated env value, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// IsPGUniqueViolation reports whether error is PostgreSQL unique constraint violation (code 23505).
func IsPGUniqueViolation(err error) bool {
	var pge *pgconn.PgError
	if errors.As(err, &pge) {
		return pge.Code == "23505"
	}
	return false
}
