package log

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/mwantia/fabric/pkg/container"
)

// Resolve looks up the registered LoggerService in the container.
//
// The reference follows the `logger` / `logger:<name>` convention:
//   - "logger" returns the base logger
//   - "logger:<name>" returns base.Named(name)
func Resolve(ctx context.Context, sc *container.ServiceContainer, ref string) (LoggerService, error) {
	if !strings.EqualFold(ref, "logger") && !strings.HasPrefix(strings.ToLower(ref), "logger:") {
		return nil, fmt.Errorf("invalid logger reference '%s'", ref)
	}

	ok, resolved := sc.ResolveByType(ctx, reflect.TypeOf((*LoggerService)(nil)).Elem())
	if !ok {
		return nil, fmt.Errorf("failed to resolve logger '%s': no logger service registered", ref)
	}

	base, ok := resolved.(LoggerService)
	if !ok {
		return nil, fmt.Errorf("resolved logger for '%s' is not a LoggerService", ref)
	}

	if _, name, found := strings.Cut(ref, ":"); found {
		if name = strings.TrimSpace(name); name != "" {
			return base.Named(name), nil
		}
	}

	return base, nil
}
