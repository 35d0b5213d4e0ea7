package config

import (
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Watch reloads the configuration whenever v's config file is written and
// passes the result to onChange. An invalid file is reported through err and
// the previous configuration stays in effect for the caller to decide.
// Watch does nothing when v has no config file.
func Watch(v *viper.Viper, onChange func(cfg *Config, err error)) {
	if v.ConfigFileUsed() == "" {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !IsReloadEvent(e) {
			return
		}
		onChange(LoadFrom(v))
	})
	v.WatchConfig()
}

// IsReloadEvent reports whether e changes the file's contents. Editors that
// save by rename produce a Create on the new file.
func IsReloadEvent(e fsnotify.Event) bool {
	return e.Op&(fsnotify.Write|fsnotify.Create) != 0
}
