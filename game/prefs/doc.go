// Package prefs stores small player preferences such as the selected level
// in a YAML file of string key-value pairs.
package prefs
