// Command report-converter converts Cognos report specifications into
// Power BI projects.
//
//   - Parses the report XML into pages, visuals and data items
//   - Resolves every data item through a reviewed mapping table
//   - Binds visuals, merges measure calculations and writes a PBIP project
package main

import "report-converter/internal/cli"

func main() {
	cli.Execute()
}
