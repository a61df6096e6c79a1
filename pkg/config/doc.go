/*
Package config loads and validates the subgate daemon configuration.

Configuration is layered: built-in defaults, then an optional YAML file
(--config), then SUBGATE_* environment variables. The environment layer wins,
so the bot token and other secrets can stay out of the config file entirely.

A minimal file for the control-API backend:

	channel_id: "@my_channel"
	server_domain: vpn.example.com
	backend: api
	control_url: http://127.0.0.1:2053
	inbound_tag: vless_tls

and for the file backend:

	channel_id: "@my_channel"
	server_domain: vpn.example.com
	backend: file
	xray_config_path: /usr/local/etc/xray/config.json
	reload_url: http://127.0.0.1:9000/reload/xray
*/
package config
