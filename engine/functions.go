package engine

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/viant/sqlite-fts4rank/matchinfo"
	"github.com/viant/sqlite-fts4rank/rank"
)

// SQL names of the registered functions.
const (
	DecodeFunction   = "decode_matchinfo"
	AnnotateFunction = "annotate_matchinfo"
	RankFunction     = "rank_score"
	BM25Function     = "rank_bm25"
)

type scalarFunc func(args []any) (any, error)

// Option configures RegisterRankFunctions.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger that receives failures raised while evaluating
// the registered functions. Without it slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

var diagnostics atomic.Pointer[slog.Logger]

// RegisterRankFunctions makes decode_matchinfo, annotate_matchinfo,
// rank_score and rank_bm25 available on every connection opened through
// Open after this call. Existing open connections will not see them.
// Calling it again only replaces the logger.
func RegisterRankFunctions(_ *sql.DB, opts ...Option) error {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger != nil {
		diagnostics.Store(o.logger)
	}
	AddConnectHook("rank", registerRankFunctions)
	return nil
}

func registerRankFunctions(conn *sqlite3.SQLiteConn) error {
	unary := map[string]scalarFunc{
		DecodeFunction: decodeImpl,
		RankFunction:   rankScoreImpl,
		BM25Function:   rankBM25Impl,
	}
	for name, impl := range unary {
		fn := logFailures(name, impl)
		if err := conn.RegisterFunc(name, func(buf any) (any, error) { return fn([]any{buf}) }, true); err != nil {
			return fmt.Errorf("register %s: %w", name, err)
		}
	}
	annotate := logFailures(AnnotateFunction, annotateImpl)
	if err := conn.RegisterFunc(AnnotateFunction, func(buf, format any) (any, error) { return annotate([]any{buf, format}) }, true); err != nil {
		return fmt.Errorf("register %s: %w", AnnotateFunction, err)
	}
	return nil
}

func logger() *slog.Logger {
	if l := diagnostics.Load(); l != nil {
		return l
	}
	return slog.Default()
}

// logFailures reports every error or panic of impl before handing it back to
// SQLite, so a failing ranking expression is visible in the logs as well as
// failing the statement.
func logFailures(name string, impl scalarFunc) scalarFunc {
	return func(args []any) (result any, err error) {
		defer func() {
			if r := recover(); r != nil {
				result = nil
				err = fmt.Errorf("%s: panic: %v", name, r)
				logger().Error("sql function panicked", "function", name, "panic", r, "stack", string(debug.Stack()))
			}
		}()
		result, err = impl(args)
		if err != nil {
			logger().Error("sql function failed", "function", name, "error", err)
		}
		return result, err
	}
}

// isNull reports an SQL NULL argument. The driver hands NULL to an `any`
// parameter as a nil []byte; an empty BLOB arrives as a non-nil empty slice.
func isNull(arg any) bool {
	if arg == nil {
		return true
	}
	b, ok := arg.([]byte)
	return ok && b == nil
}

func asBuffer(name string, arg any) ([]byte, error) {
	switch v := arg.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("%s: unsupported argument type %T for matchinfo; want BLOB", name, arg)
	}
}

func asFormat(name string, arg any) (string, error) {
	switch v := arg.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("%s: unsupported argument type %T for format; want TEXT", name, arg)
	}
}

func decodeImpl(args []any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%s: expected 1 argument, got %d", DecodeFunction, len(args))
	}
	buf, err := asBuffer(DecodeFunction, args[0])
	if err != nil || buf == nil {
		return nil, err
	}
	values, err := matchinfo.Decode(buf)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func annotateImpl(args []any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("%s: expected 2 arguments, got %d", AnnotateFunction, len(args))
	}
	buf, err := asBuffer(AnnotateFunction, args[0])
	if err != nil || buf == nil || isNull(args[1]) {
		return nil, err
	}
	format, err := asFormat(AnnotateFunction, args[1])
	if err != nil {
		return nil, err
	}
	ann, err := matchinfo.AnnotateBuffer(buf, format)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(ann)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func rankScoreImpl(args []any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%s: expected 1 argument, got %d", RankFunction, len(args))
	}
	buf, err := asBuffer(RankFunction, args[0])
	if err != nil || buf == nil {
		return nil, err
	}
	score, err := rank.Naive(buf)
	if err != nil {
		return nil, err
	}
	return score, nil
}

func rankBM25Impl(args []any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%s: expected 1 argument, got %d", BM25Function, len(args))
	}
	buf, err := asBuffer(BM25Function, args[0])
	if err != nil || buf == nil {
		return nil, err
	}
	score, ok, err := rank.BM25(buf)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return score, nil
}
