package repository

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/corentings/chess/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/aravinthkumarms/chess-review-v2/internal/bootstrap"
	errs "github.com/aravinthkumarms/chess-review-v2/internal/errors"
)

// moveNumberRe strips "1." / "12..." prefixes from reference lines.
var moveNumberRe = regexp.MustCompile(`\d+\.+`)

var resultTokens = map[string]bool{
	"1-0":     true,
	"0-1":     true,
	"1/2-1/2": true,
	"*":       true,
}

// BookSet is the loaded opening book: a set of normalized position keys.
// Read-only after load, safe for concurrent readers. A nil set answers false
// to everything, so a failed load degrades to "nothing is theory".
type BookSet struct {
	keys map[string]struct{}
}

func (s *BookSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

func (s *BookSet) Contains(fen string) bool {
	if s == nil {
		return false
	}
	_, ok := s.keys[NormalizeFEN(fen)]
	return ok
}

// NormalizeFEN drops the halfmove and fullmove counters, keeping board,
// side to move, castling and en-passant rights.
func NormalizeFEN(fen string) string {
	fields := strings.Fields(fen)
	if len(fields) < 4 {
		return fen
	}
	return strings.Join(fields[:4], " ")
}

// BookStore loads and caches the opening book. The first Load wins; concurrent
// callers share the single in-flight load and every later call returns the
// cached result, error included.
type BookStore struct {
	cfg   *bootstrap.Config
	log   *zap.SugaredLogger
	mongo *mongo.Database

	once   sync.Once
	loaded atomic.Bool
	set    *BookSet
	err    error
}

func NewBookStore(cfg *bootstrap.Config, log *zap.SugaredLogger, mongoDB *mongo.Database) *BookStore {
	return &BookStore{
		cfg:   cfg,
		log:   log,
		mongo: mongoDB,
	}
}

// Load returns the book set. On ErrBookEmpty the returned set is still usable
// (and empty); callers are expected to proceed with book status off.
func (b *BookStore) Load(ctx context.Context) (*BookSet, error) {
	b.once.Do(func() {
		b.set, b.err = b.load(ctx)
		b.loaded.Store(true)
	})
	return b.set, b.err
}

// Ready reports the lifecycle state without forcing a load.
func (b *BookStore) Ready() (positions int, loaded bool) {
	if !b.loaded.Load() {
		return 0, false
	}
	return b.set.Len(), true
}

func (b *BookStore) load(ctx context.Context) (*BookSet, error) {
	keys := make(map[string]struct{})

	if b.cfg.BookDir != "" {
		paths, err := filepath.Glob(filepath.Join(b.cfg.BookDir, "*.tsv"))
		if err != nil {
			b.log.Warnw("book directory scan failed", "dir", b.cfg.BookDir, "error", err)
		}
		for _, path := range paths {
			if err := b.loadTSV(path, keys); err != nil {
				b.log.Warnw("book partition failed", "path", path, "error", err)
			}
		}
	}

	if b.mongo != nil && b.cfg.BookCollection != "" {
		if err := b.loadMongo(ctx, keys); err != nil {
			b.log.Warnw("book partition failed", "collection", b.cfg.BookCollection, "error", err)
		}
	}

	set := &BookSet{keys: keys}
	if len(keys) == 0 {
		return set, errs.ErrBookEmpty
	}
	b.log.Infof("opening book ready with %d positions", len(keys))
	return set, nil
}

// loadTSV indexes one reference partition: a TSV whose third column is a move
// sequence ("1. e4 e5 2. Nf3 ..." or UCI tokens).
func (b *BookStore) loadTSV(path string, keys map[string]struct{}) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		parts := strings.Split(scanner.Text(), "\t")
		if len(parts) < 3 {
			continue
		}
		indexLine(strings.TrimSpace(parts[2]), keys)
	}
	return scanner.Err()
}

type bookRow struct {
	ECO   string `bson:"eco"`
	Name  string `bson:"name"`
	Moves string `bson:"moves"`
}

func (b *BookStore) loadMongo(ctx context.Context, keys map[string]struct{}) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := b.mongo.Collection(b.cfg.BookCollection).Find(ctx, bson.M{})
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var row bookRow
		if err := cursor.Decode(&row); err != nil {
			b.log.Warnw("book row decode failed", "error", err)
			continue
		}
		indexLine(row.Moves, keys)
	}
	return cursor.Err()
}

// indexLine replays one reference line from the start position and records
// every intermediate normalized position. A malformed token stops the replay
// of that line; positions recorded up to it are kept.
func indexLine(moves string, keys map[string]struct{}) {
	clean := moveNumberRe.ReplaceAllString(moves, "")
	game := chess.NewGame()
	for _, tok := range strings.Fields(clean) {
		if resultTokens[tok] {
			break
		}
		if err := game.PushNotationMove(tok, chess.AlgebraicNotation{}, nil); err != nil {
			if err := game.PushNotationMove(tok, chess.UCINotation{}, nil); err != nil {
				return
			}
		}
		keys[NormalizeFEN(game.FEN())] = struct{}{}
	}
}
