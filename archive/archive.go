// Package archive stores documents in a single sqlite file: layer
// properties in one table and the zstd compressed tiles of every layer and
// of the background in another.
package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"tilecanvas/background"
	"tilecanvas/document"
	"tilecanvas/internal/logx"
	"tilecanvas/layer"
	"tilecanvas/pixops"

	_ "github.com/mattn/go-sqlite3"
)

// Format is stored in the meta table and checked on load.
const Format = "tilecanvas-1"

// backgroundLayer is the layer id used for background tiles.
const backgroundLayer = -1

var ErrNotArchive = errors.New("not a tilecanvas archive")

const schema = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS layers (
	id       INTEGER PRIMARY KEY,
	position INTEGER NOT NULL,
	name     TEXT NOT NULL,
	opacity  REAL NOT NULL,
	visible  INTEGER NOT NULL,
	locked   INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS tiles (
	layer INTEGER NOT NULL,
	x     INTEGER NOT NULL,
	y     INTEGER NOT NULL,
	data  BLOB NOT NULL,
	PRIMARY KEY (layer, x, y)
);`

// Archive is an open archive file.
type Archive struct {
	db   *sql.DB
	path string
}

// Open opens or creates the archive at path.
func Open(path string) (*Archive, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create archive %s: %w", path, err)
	}
	return &Archive{db: db, path: path}, nil
}

// Close closes the database.
func (a *Archive) Close() error {
	return a.db.Close()
}

// Save replaces the archive content with doc in one transaction.
func (a *Archive) Save(ctx context.Context, doc *document.Document) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save %s: %w", a.path, err)
	}
	defer tx.Rollback()

	if err := a.save(ctx, tx, doc); err != nil {
		return fmt.Errorf("save %s: %w", a.path, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save %s: %w", a.path, err)
	}
	return nil
}

func (a *Archive) save(ctx context.Context, tx *sql.Tx, doc *document.Document) error {
	for _, q := range []string{"DELETE FROM meta", "DELETE FROM layers", "DELETE FROM tiles"} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return err
		}
	}

	meta := map[string]string{
		"format":     Format,
		"current":    strconv.Itoa(doc.Current),
		"colorspace": doc.Colorspace.String(),
	}
	if doc.Background != nil {
		tw, th := doc.Background.Size()
		meta["background_width"] = strconv.Itoa(tw)
		meta["background_height"] = strconv.Itoa(th)
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, "INSERT INTO meta (key, value) VALUES (?, ?)", k, v); err != nil {
			return err
		}
	}

	insertTile, err := tx.PrepareContext(ctx, "INSERT INTO tiles (layer, x, y, data) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer insertTile.Close()

	tiles := 0
	for i, l := range doc.Layers {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO layers (id, position, name, opacity, visible, locked) VALUES (?, ?, ?, ?, ?, ?)",
			i, i, l.Name, l.Opacity, l.Visible, l.Locked)
		if err != nil {
			return err
		}
		for _, c := range l.Surface.Tiles() {
			t, _ := l.Surface.Tile(c.X, c.Y)
			if _, err := insertTile.ExecContext(ctx, i, c.X, c.Y, encodeTile(t)); err != nil {
				return err
			}
			tiles++
		}
	}

	if bg := doc.Background; bg != nil {
		tw, th := bg.Size()
		for ty := 0; ty < th; ty++ {
			for tx := 0; tx < tw; tx++ {
				if _, err := insertTile.ExecContext(ctx, backgroundLayer, tx, ty, encodeTile(bg.Tile(tx, ty))); err != nil {
					return err
				}
			}
		}
	}
	logx.WithComponent("archive").Debugf("saved %d layers, %d tiles to %s", len(doc.Layers), tiles, a.path)
	return nil
}

// Load reads the document stored in the archive.
func (a *Archive) Load(ctx context.Context) (*document.Document, error) {
	doc, err := a.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", a.path, err)
	}
	return doc, nil
}

func (a *Archive) load(ctx context.Context) (*document.Document, error) {
	meta, err := a.meta(ctx)
	if err != nil {
		return nil, err
	}
	if meta["format"] != Format {
		return nil, ErrNotArchive
	}

	bg, err := a.loadBackground(ctx, meta)
	if err != nil {
		return nil, err
	}
	doc := document.New(bg)
	doc.Colorspace = pixops.ParseColorspace(meta["colorspace"])

	rows, err := a.db.QueryContext(ctx,
		"SELECT id, name, opacity, visible, locked FROM layers ORDER BY position")
	if err != nil {
		doc.Background.Close()
		return nil, err
	}
	var ids []int
	var layers []*layer.Layer
	for rows.Next() {
		var id int
		l := layer.New("")
		if err := rows.Scan(&id, &l.Name, &l.Opacity, &l.Visible, &l.Locked); err != nil {
			rows.Close()
			doc.Background.Close()
			return nil, err
		}
		ids = append(ids, id)
		layers = append(layers, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		doc.Background.Close()
		return nil, err
	}
	if len(layers) == 0 {
		doc.Background.Close()
		return nil, fmt.Errorf("%w: no layers", ErrNotArchive)
	}

	for i, l := range layers {
		err := a.eachTile(ctx, ids[i], func(tx, ty int, t *pixops.Tile) {
			*l.Surface.TileForWrite(tx, ty) = *t
		})
		if err != nil {
			doc.Background.Close()
			return nil, err
		}
	}

	doc.Layers = layers
	cur, _ := strconv.Atoi(meta["current"])
	if err := doc.SelectLayer(cur); err != nil {
		doc.Current = len(layers) - 1
	}
	return doc, nil
}

func (a *Archive) meta(ctx context.Context) (map[string]string, error) {
	rows, err := a.db.QueryContext(ctx, "SELECT key, value FROM meta")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		meta[k] = v
	}
	return meta, rows.Err()
}

// loadBackground returns nil when the archive has no background, which
// gives the default one.
func (a *Archive) loadBackground(ctx context.Context, meta map[string]string) (*background.Background, error) {
	tw, _ := strconv.Atoi(meta["background_width"])
	th, _ := strconv.Atoi(meta["background_height"])
	if tw <= 0 || th <= 0 {
		return nil, nil
	}
	tiles := make([]*pixops.Tile, tw*th)
	err := a.eachTile(ctx, backgroundLayer, func(tx, ty int, t *pixops.Tile) {
		if tx >= 0 && tx < tw && ty >= 0 && ty < th {
			tiles[ty*tw+tx] = t.Clone()
		}
	})
	if err != nil {
		return nil, err
	}
	for i, t := range tiles {
		if t == nil {
			return nil, fmt.Errorf("background tile %d missing", i)
		}
	}
	return background.FromTiles(tw, th, tiles)
}

// eachTile calls fn for every tile of a layer. The tile passed to fn is
// reused between calls.
func (a *Archive) eachTile(ctx context.Context, id int, fn func(tx, ty int, t *pixops.Tile)) error {
	rows, err := a.db.QueryContext(ctx, "SELECT x, y, data FROM tiles WHERE layer = ?", id)
	if err != nil {
		return err
	}
	defer rows.Close()
	var t pixops.Tile
	for rows.Next() {
		var tx, ty int
		var data []byte
		if err := rows.Scan(&tx, &ty, &data); err != nil {
			return err
		}
		if err := decodeTile(&t, data); err != nil {
			return fmt.Errorf("layer %d tile (%d, %d): %w", id, tx, ty, err)
		}
		fn(tx, ty, &t)
	}
	return rows.Err()
}
