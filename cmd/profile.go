package cmd

import "gopkg.in/yaml.v3"

// profile models the optional YAML remediation profile. Each section is
// decoded over the built-in defaults, so only the keys present change
// anything; lists replace the default list entirely.
//
//	vhost: xg.kudafn.com
//	resolver:
//	  legacy_asset: index-TYfQc_0-.js
//	  max_ascend: 4
//	deploy:
//	  legacy_dirs: [me, me/institution]
//	  reload_commands: ["nginx -s reload", "systemctl reload nginx"]
type profile struct {
	VHost    string    `yaml:"vhost"`
	Resolver yaml.Node `yaml:"resolver"`
	Deploy   yaml.Node `yaml:"deploy"`
}
