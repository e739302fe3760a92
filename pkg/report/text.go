package report

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
)

// WriteText writes l as aligned columns, one section per non-empty table.
func WriteText(w io.Writer, l *Listing) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	s := l.Story
	fmt.Fprintf(tw, "Story:\tV%d release %d serial %s checksum 0x%04x length %d\n",
		s.Version, s.Release, s.Serial, s.Checksum, s.Length)

	if len(l.Abbreviations) > 0 {
		fmt.Fprintf(tw, "\nAbbreviations: %d\n", len(l.Abbreviations))
		for _, a := range l.Abbreviations {
			fmt.Fprintf(tw, "  %d\t0x%04x\t%s\n", a.Number, a.Address, strconv.Quote(a.Text))
		}
	}
	if len(l.Words) > 0 {
		fmt.Fprintf(tw, "\nDictionary: %d\n", len(l.Words))
		for _, d := range l.Words {
			fmt.Fprintf(tw, "  %d\t0x%04x\t%s\n", d.Index, d.Address, d.Text)
		}
	}
	if len(l.Objects) > 0 {
		fmt.Fprintf(tw, "\nObjects: %d\n", len(l.Objects))
		for _, o := range l.Objects {
			fmt.Fprintf(tw, "  %d\t%s\tparent %d\tsibling %d\tchild %d\tattributes %v\n",
				o.Number, strconv.Quote(o.Name), o.Parent, o.Sibling, o.Child, o.Attributes)
		}
	}
	if len(l.Instructions) > 0 {
		fmt.Fprintf(tw, "\nInstructions: %d\n", len(l.Instructions))
		for _, in := range l.Instructions {
			fmt.Fprintf(tw, "  0x%04x\t%s\n", in.Address, in.Text)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("report: write text: %w", err)
	}
	return nil
}
