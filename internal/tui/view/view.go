// Package view shows a boot sector's partition table in a terminal UI.
package view

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"mmcfdisk/internal/geometry"
	"mmcfdisk/internal/image/partition"
)

var columns = []string{"slot", "boot", "id", "CHS start", "CHS end", "block start", "block count", "size(MB)"}

// Rows renders the four slots of sec, one row per slot, in columns order.
func Rows(sec partition.Sector) [][]string {
	t := partition.ReadTable(sec)
	rows := make([][]string, 0, len(t))
	for i, e := range t {
		start, end, _ := partition.CHS(sec, i+1)
		boot := "-"
		if e.Bootable == 0x80 {
			boot = "*"
		}
		if e.Empty() {
			rows = append(rows, []string{fmt.Sprint(i + 1), boot, fmt.Sprintf("0x%02X", e.Type), "", "", "", "", "empty"})
			continue
		}
		rows = append(rows, []string{
			fmt.Sprint(i + 1),
			boot,
			fmt.Sprintf("0x%02X", e.Type),
			start.String(),
			end.String(),
			fmt.Sprint(e.BlockStart),
			fmt.Sprint(e.BlockCount),
			fmt.Sprint(e.SizeMB()),
		})
	}
	return rows
}

type viewer struct {
	app    *tview.Application
	header *tview.TextView
	table  *tview.Table
	footer *tview.TextView
}

// Run displays sec until the user quits with q, Esc or F10.
func Run(name string, g geometry.Geometry, sec partition.Sector) error {
	v := &viewer{
		app:    tview.NewApplication(),
		header: tview.NewTextView(),
		table:  tview.NewTable(),
		footer: tview.NewTextView(),
	}

	v.header.SetBorder(true)
	v.header.SetTitle(" " + name + " ")
	v.header.SetDynamicColors(true)
	fmt.Fprintf(v.header, "[yellow]mode[-]: %s  [yellow]C/H/S[-]: %s  [yellow]blocks[-]: %d  [yellow]signature[-]: %s",
		g.Mode, g.End, g.TotalBlocks, signature(sec))

	v.fill(sec)

	v.footer.SetDynamicColors(true)
	fmt.Fprint(v.footer, "[black:white] q [-:-:-] [yellow]Quit[-]")

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.header, 3, 0, false).
		AddItem(v.table, 0, 1, true).
		AddItem(v.footer, 1, 0, false)

	v.app.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		if ev.Key() == tcell.KeyEsc || ev.Key() == tcell.KeyF10 || ev.Rune() == 'q' {
			v.app.Stop()
			return nil
		}
		return ev
	})
	return v.app.SetRoot(layout, true).Run()
}

func (v *viewer) fill(sec partition.Sector) {
	v.table.SetBorder(true)
	v.table.SetTitle(" partitions ")
	v.table.SetFixed(1, 0)
	v.table.SetSelectable(true, false)

	for c, h := range columns {
		v.table.SetCell(0, c, tview.NewTableCell(strings.ToUpper(h)).
			SetTextColor(tcell.ColorYellow).
			SetSelectable(false).
			SetExpansion(1))
	}
	for r, row := range Rows(sec) {
		for c, text := range row {
			cell := tview.NewTableCell(text).SetExpansion(1)
			if c >= 5 {
				cell.SetAlign(tview.AlignRight)
			}
			v.table.SetCell(r+1, c, cell)
		}
	}
}

func signature(sec partition.Sector) string {
	if partition.Valid(sec) {
		return "[green]55AA[-]"
	}
	return "[red]missing[-]"
}
