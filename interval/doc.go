/*Package interval parses genomic region strings into 0-based half-open
  intervals.
  It assumes every position fits in a PosType, which is currently defined as
  int32 since that's what BAM files are limited to.
*/
package interval
