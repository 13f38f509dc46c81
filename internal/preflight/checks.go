package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"autoname/internal/services/abr"
)

// ProbeABN is the registry entry queried by CheckABR. It belongs to the
// Australian Taxation Office and is expected to resolve indefinitely.
const ProbeABN = "51824753556"

const checkTimeout = 15 * time.Second

// Authenticator validates extraction service credentials.
type Authenticator interface {
	Authenticate(ctx context.Context) error
}

// Searcher queries the business register.
type Searcher interface {
	SearchByABN(ctx context.Context, abn string) (abr.Response, error)
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSameFilesystem reports whether documents can be renamed atomically
// from input to output. A cross-device pair still passes because moves fall
// back to copy and delete.
func CheckSameFilesystem(input, output string) Result {
	const name = "Move strategy"

	var in, out unix.Stat_t
	if err := unix.Stat(input, &in); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("stat %s: %v", input, err)}
	}
	if err := unix.Stat(output, &out); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("stat %s: %v", output, err)}
	}
	if in.Dev == out.Dev {
		return Result{Name: name, Passed: true, Detail: "same filesystem (atomic rename)"}
	}
	return Result{Name: name, Passed: true, Detail: "different filesystems (copy then delete)"}
}

// CheckSypht verifies that the extraction service accepts the configured
// client credentials.
func CheckSypht(ctx context.Context, client Authenticator) Result {
	const name = "Sypht"
	if client == nil {
		return Result{Name: name, Detail: "credentials missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	if err := client.Authenticate(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "authenticated"}
}

// CheckABR verifies that the business register is reachable and accepts the
// configured GUID by resolving ProbeABN.
func CheckABR(ctx context.Context, client Searcher) Result {
	const name = "ABR"
	if client == nil {
		return Result{Name: name, Detail: "guid missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	resp, err := client.SearchByABN(checkCtx, ProbeABN)
	if err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	if resp.Exception != nil {
		detail := strings.TrimSpace(resp.Exception.Description)
		if detail == "" {
			detail = "registry exception " + resp.Exception.Code
		}
		return Result{Name: name, Detail: detail}
	}
	if _, ok := resp.BusinessEntity.EntityName(); !ok {
		if _, ok := resp.BusinessEntity.TradingName(); !ok {
			return Result{Name: name, Detail: "probe lookup returned no name"}
		}
	}
	return Result{Name: name, Passed: true, Detail: "reachable"}
}

func summarizeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "check timed out (service unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "check timed out (service unreachable)"
	}
	return err.Error()
}
