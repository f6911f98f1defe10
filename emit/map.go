package emit

import (
	"encoding/json"
	"io"
	"sort"

	"github.com/lookbusy1344/hasm16/asm"
)

// addrLine is one entry in the address-to-line map.
type addrLine struct {
	Addr int64 `json:"addr"`
	Line int   `json:"line"`
}

// Map writes the address-to-source-line map as a JSON array, sorted by
// address, covering every unit that carries a source line number. Units
// with line 0 (the linker's generated Harvard data initializers) are left
// out.
func Map(w io.Writer, prog *asm.Program) error {
	entries := make([]addrLine, 0, len(prog.Units))
	for _, u := range prog.Units {
		switch v := u.(type) {
		case *asm.Instruction:
			if v.Number != 0 {
				entries = append(entries, addrLine{Addr: v.Addr, Line: v.Number})
			}
		case *asm.DataWord:
			if v.Number != 0 {
				entries = append(entries, addrLine{Addr: v.Addr, Line: v.Number})
			}
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Addr < entries[j].Addr })

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}
