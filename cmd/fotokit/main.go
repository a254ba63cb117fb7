// fotokit finds duplicate photos, keeps albums that survive files being
// moved around, and sorts photos into dated directories.
package main

import (
	"k8s.io/klog/v2"
)

func main() {
	defer klog.Flush()
	if err := rootCmd.Execute(); err != nil {
		klog.Exitf("%v", err)
	}
}
