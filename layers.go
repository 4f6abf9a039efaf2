package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"tilecanvas/document"
)

type LayersCmd struct {
	List      LayersListCmd      `cmd:"" help:"List the layers"`
	Select    LayersSelectCmd    `cmd:"" help:"Make a layer current"`
	Remove    LayersRemoveCmd    `cmd:"" help:"Remove a layer"`
	Move      LayersMoveCmd      `cmd:"" help:"Move a layer to another position"`
	Duplicate LayersDuplicateCmd `cmd:"" help:"Duplicate a layer"`
	MergeDown LayersMergeDownCmd `cmd:"" help:"Merge a layer into the one below"`
	Set       LayersSetCmd       `cmd:"" help:"Change layer properties"`
	Pick      LayersPickCmd      `cmd:"" help:"Select the topmost layer painted at a pixel"`
	Translate LayersTranslateCmd `cmd:"" help:"Move a layer by whole tiles"`
	Flatten   LayersFlattenCmd   `cmd:"" help:"Paint the background under the colours of a layer"`
}

// editDocument loads an archive, applies fn and saves it back.
func editDocument(se *SafeExit, path string, fn func(doc *document.Document) error) error {
	ctx := se.Context()
	doc, err := openDocument(ctx, path)
	if err != nil {
		return err
	}
	defer doc.Background.Close()
	if err := fn(doc); err != nil {
		return err
	}
	return saveDocument(ctx, path, doc)
}

type LayersListCmd struct {
	Archive string `arg:"" type:"existingfile"`
}

func (c *LayersListCmd) Run(se *SafeExit) error {
	doc, err := openDocument(se.Context(), c.Archive)
	if err != nil {
		return err
	}
	defer doc.Background.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "\tINDEX\tNAME\tOPACITY\tVISIBLE\tLOCKED\tTILES\tBBOX")
	for i := len(doc.Layers) - 1; i >= 0; i-- {
		l := doc.Layers[i]
		mark := ""
		if i == doc.Current {
			mark = "*"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%.2f\t%t\t%t\t%d\t%v\n",
			mark, i, l.Name, l.Opacity, l.Visible, l.Locked, len(l.Surface.Tiles()), l.Surface.BBox())
	}
	return w.Flush()
}

type LayersSelectCmd struct {
	Archive string `arg:"" type:"existingfile"`
	Index   int    `arg:""`
}

func (c *LayersSelectCmd) Run(se *SafeExit) error {
	return editDocument(se, c.Archive, func(doc *document.Document) error {
		return doc.SelectLayer(c.Index)
	})
}

type LayersRemoveCmd struct {
	Archive string `arg:"" type:"existingfile"`
	Index   int    `arg:""`
}

func (c *LayersRemoveCmd) Run(se *SafeExit) error {
	return editDocument(se, c.Archive, func(doc *document.Document) error {
		if err := doc.SelectLayer(c.Index); err != nil {
			return err
		}
		return doc.RemoveLayer()
	})
}

type LayersMoveCmd struct {
	Archive string `arg:"" type:"existingfile"`
	From    int    `arg:""`
	To      int    `arg:""`
}

func (c *LayersMoveCmd) Run(se *SafeExit) error {
	return editDocument(se, c.Archive, func(doc *document.Document) error {
		return doc.MoveLayer(c.From, c.To)
	})
}

type LayersDuplicateCmd struct {
	Archive string `arg:"" type:"existingfile"`
	Index   int    `arg:""`
	Name    string `help:"Name of the copy, the original name when empty"`
}

func (c *LayersDuplicateCmd) Run(se *SafeExit) error {
	return editDocument(se, c.Archive, func(doc *document.Document) error {
		if c.Index < 0 || c.Index >= len(doc.Layers) {
			return fmt.Errorf("duplicate layer %d: %w", c.Index, document.ErrLayerIndex)
		}
		name := c.Name
		if name == "" {
			name = doc.Layers[c.Index].Name
		}
		_, err := doc.DuplicateLayer(c.Index, name)
		return err
	})
}

type LayersMergeDownCmd struct {
	Archive string `arg:"" type:"existingfile"`
	Index   int    `arg:""`
}

func (c *LayersMergeDownCmd) Run(se *SafeExit) error {
	return editDocument(se, c.Archive, func(doc *document.Document) error {
		if err := doc.SelectLayer(c.Index); err != nil {
			return err
		}
		return doc.MergeLayerDown()
	})
}

type LayersSetCmd struct {
	Archive string  `arg:"" type:"existingfile"`
	Index   int     `arg:""`
	Name    string  `help:"New name"`
	Opacity float64 `help:"Opacity in [0, 1], unchanged when negative" default:"-1"`
	Visible string  `help:"Visibility" enum:"keep,true,false" default:"keep"`
	Locked  string  `help:"Lock state" enum:"keep,true,false" default:"keep"`
}

func (c *LayersSetCmd) Run(se *SafeExit) error {
	return editDocument(se, c.Archive, func(doc *document.Document) error {
		if c.Index < 0 || c.Index >= len(doc.Layers) {
			return fmt.Errorf("set layer %d: %w", c.Index, document.ErrLayerIndex)
		}
		l := doc.Layers[c.Index]
		if c.Name != "" {
			l.Name = c.Name
		}
		if c.Opacity >= 0 {
			l.SetOpacity(c.Opacity)
		}
		if c.Visible != "keep" {
			l.Visible = c.Visible == "true"
		}
		if c.Locked != "keep" {
			l.Locked = c.Locked == "true"
		}
		return nil
	})
}

type LayersPickCmd struct {
	Archive string `arg:"" type:"existingfile"`
	X       int    `arg:""`
	Y       int    `arg:""`
}

func (c *LayersPickCmd) Run(se *SafeExit) error {
	return editDocument(se, c.Archive, func(doc *document.Document) error {
		i := doc.PickLayer(c.X, c.Y)
		log.Infof("picked layer %d (%s)", i, doc.Layers[i].Name)
		return nil
	})
}

type LayersTranslateCmd struct {
	Archive string `arg:"" type:"existingfile"`
	Index   int    `arg:""`
	DX      int    `arg:"" help:"Tiles to the right"`
	DY      int    `arg:"" help:"Tiles down"`
}

func (c *LayersTranslateCmd) Run(se *SafeExit) error {
	return editDocument(se, c.Archive, func(doc *document.Document) error {
		if c.Index < 0 || c.Index >= len(doc.Layers) {
			return fmt.Errorf("translate layer %d: %w", c.Index, document.ErrLayerIndex)
		}
		doc.Layers[c.Index].Translate(c.DX, c.DY)
		return nil
	})
}

type LayersFlattenCmd struct {
	Archive string `arg:"" type:"existingfile"`
	Index   int    `arg:""`
}

func (c *LayersFlattenCmd) Run(se *SafeExit) error {
	return editDocument(se, c.Archive, func(doc *document.Document) error {
		if c.Index < 0 || c.Index >= len(doc.Layers) {
			return fmt.Errorf("flatten layer %d: %w", c.Index, document.ErrLayerIndex)
		}
		doc.Layers[c.Index].Flatten(doc.Background)
		return nil
	})
}
