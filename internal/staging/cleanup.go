package staging

import (
    "os"
    "path/filepath"
    "strings"
    "time"

    "github.com/rs/zerolog/log"
)

// Sweep removes staging directories left in the temp dir by runs that were
// killed before their cleanup ran. Only top-level directories named with
// prefix and older than maxAge are removed. It returns how many were removed.
func Sweep(prefix string, maxAge time.Duration) int {
    return sweepDir(os.TempDir(), prefix, maxAge, time.Now())
}

func sweepDir(dir, prefix string, maxAge time.Duration, now time.Time) int {
    if prefix == "" || maxAge <= 0 { return 0 }
    entries, err := os.ReadDir(dir)
    if err != nil { return 0 }
    removed := 0
    for _, e := range entries {
        if !e.IsDir() || !strings.HasPrefix(e.Name(), prefix) { continue }
        info, err := e.Info()
        if err != nil { continue }
        if now.Sub(info.ModTime()) < maxAge { continue }
        p := filepath.Join(dir, e.Name())
        if err := os.RemoveAll(p); err != nil {
            log.Warn().Err(err).Str("dir", p).Msg("failed to remove stale staging dir")
            continue
        }
        removed++
    }
    if removed > 0 {
        log.Info().Int("removed", removed).Str("prefix", prefix).Msg("removed stale staging dirs")
    }
    return removed
}
