// ddenum lists the display devices the translation mode enumeration reports
// and decodes D3DHAL_DP2COMMAND streams.
//
//	ddenum [-ex] [-wide] [-flags n] [-json]
//	ddenum -decode 1c000300...
package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/tekert/golang-ddraw/ddraw"
	"github.com/tekert/golang-ddraw/ddraw/pkg/utf16f"
)

type device struct {
	GUID        string `json:"guid"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Monitor     string `json:"monitor,omitempty"`
	Adapter     uint32 `json:"adapter"`
}

func main() {
	var (
		ex      = flag.Bool("ex", false, "use the extended enumeration (monitor handles)")
		wide    = flag.Bool("wide", false, "use the wide character callbacks")
		flags   = flag.Uint("flags", ddraw.DDENUM_ATTACHEDSECONDARYDEVICES, "DDENUM_* flags of the extended enumeration")
		asJSON  = flag.Bool("json", false, "print devices as JSON")
		decode  = flag.String("decode", "", "hex encoded command stream to decode instead of enumerating")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *verbose {
		ddraw.SetDebugLevel(false)
	}

	if *decode != "" {
		if err := decodeStream(*decode); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	typ := ddraw.EnumCallbackA
	switch {
	case *ex && *wide:
		typ = ddraw.EnumCallbackExW
	case *ex:
		typ = ddraw.EnumCallbackExA
	case *wide:
		typ = ddraw.EnumCallbackW
	}

	devices, err := enumerate(typ, uint32(*flags))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(devices); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}
	for _, d := range devices {
		fmt.Printf("%-38s  adapter %d  %-12s %s", d.GUID, d.Adapter, d.Name, d.Description)
		if d.Monitor != "" {
			fmt.Printf("  monitor %s", d.Monitor)
		}
		fmt.Println()
	}
}

// enumerate runs one pass through an engine in translation mode.
func enumerate(typ ddraw.EnumType, flags uint32) ([]device, error) {
	cfg := ddraw.NewConfig()
	cfg.Dd7to9 = true
	cfg.HookGDI = false
	cfg.HookKernel32 = false

	e := ddraw.NewEngine(cfg, ddraw.Options{})
	defer e.Close()

	var devices []device
	cb := ddraw.EnumFunc(func(d *ddraw.EnumDevice) bool {
		out := device{
			GUID:        "primary",
			Name:        d.Name,
			Description: d.Description,
			Adapter:     e.GetAdapterIndex(d.GUID),
		}
		if d.GUID != nil {
			out.GUID = d.GUID.String()
		}
		if typ.Wide() {
			out.Name = utf16f.Decode(d.WName[:])
			out.Description = utf16f.Decode(d.WDescription[:])
		} else {
			out.Name = utf16f.FromANSI([]byte(d.Name))
			out.Description = utf16f.FromANSI([]byte(d.Description))
		}
		if typ.Extended() && d.Monitor != 0 {
			out.Monitor = fmt.Sprintf("0x%x", d.Monitor)
		}
		devices = append(devices, out)
		return true
	})

	if hr := e.EnumerateDevices(cb, flags, typ); hr.Failed() {
		slog.Debug("enumeration failed", "callback", typ, "error", hr)
		return nil, fmt.Errorf("%s enumeration: %w", typ, hr)
	}
	return devices, nil
}

// decodeStream walks a command stream the way D3DParseUnknownCommand does and
// prints every header until it meets a command it cannot skip.
func decodeStream(s string) error {
	b, err := hex.DecodeString(strings.Join(strings.Fields(s), ""))
	if err != nil {
		return fmt.Errorf("invalid hex: %w", err)
	}

	for off := 0; off < len(b); {
		cmd, err := ddraw.DecodeDP2Command(b[off:])
		if err != nil {
			return fmt.Errorf("offset %d: %w", off, err)
		}
		n, err := ddraw.ParseUnknownCommand(b[off:])
		switch {
		case errors.Is(err, ddraw.ErrNotParsed):
			fmt.Printf("%6d  op %3d  count %5d  not parsed\n", off, cmd.Command, cmd.Count)
			return nil
		case err != nil:
			return fmt.Errorf("offset %d: op %d: %w", off, cmd.Command, err)
		}
		fmt.Printf("%6d  op %3d  count %5d  %d bytes\n", off, cmd.Command, cmd.Count, n)
		off += n
	}
	return nil
}
