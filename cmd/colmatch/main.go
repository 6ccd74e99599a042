// Command colmatch finds columns of two tabular samples that likely hold the
// same field. See `colmatch --help`.
package main

import "os"

func main() {
	os.Exit(Execute())
}
