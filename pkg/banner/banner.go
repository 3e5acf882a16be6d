package banner

import (
	"fmt"
)

const banner = `
██████╗ ██████╗  █████╗ ███████╗████████╗███████╗████████╗ ██████╗ ██████╗ ███████╗
██╔══██╗██╔══██╗██╔══██╗██╔════╝╚══██╔══╝██╔════╝╚══██╔══╝██╔═══██╗██╔══██╗██╔════╝
██║  ██║██████╔╝███████║█████╗     ██║   ███████╗   ██║   ██║   ██║██████╔╝█████╗
██║  ██║██╔══██╗██╔══██║██╔══╝     ██║   ╚════██║   ██║   ██║   ██║██╔══██╗██╔══╝
██████╔╝██║  ██║██║  ██║██║        ██║   ███████║   ██║   ╚██████╔╝██║  ██║███████╗
╚═════╝ ╚═╝  ╚═╝╚═╝  ╚═╝╚═╝        ╚═╝   ╚══════╝   ╚═╝    ╚═════╝ ╚═╝  ╚═╝╚══════╝
`

// Print prints the startup banner with the effective runtime values.
func Print(addr, dbPath, mediaRoot, source, version string) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:     %s\n", addr)
	fmt.Printf("DB Path:    %s\n", dbPath)
	fmt.Printf("Media Root: %s\n", mediaRoot)
	if version != "" {
		fmt.Printf("Version:    %s\n", version)
	}
	if source != "" {
		fmt.Printf("Config sources: %s\n", source)
	}
	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("GET    /v1/drafts              - List drafts (optional ?mode=capture|upload)")
	fmt.Println("GET    /v1/drafts/{id}         - Fetch one draft")
	fmt.Println("DELETE /v1/drafts/{id}         - Delete a draft (?keep_files=true keeps media)")
	fmt.Println("PUT    /v1/drafts/{id}/name    - Rename a draft")
	fmt.Println("POST   /v1/transfer/export     - Export drafts as a bundle")
	fmt.Println("POST   /v1/transfer/import     - Import a bundle")
	fmt.Println("POST   /v1/transfer/backup     - Zip the whole managed root")
	fmt.Println("GET    /metrics                - Prometheus metrics")
}
