// Package systemd provides the daemon unit template and install-time
// unit file integrity checking.
package systemd

// DaemonTemplate returns the systemd unit for mailwarden-daemon.service.
func DaemonTemplate() string {
	return `[Unit]
Description=Mailwarden intent-alignment validation daemon
After=network-online.target
Wants=network-online.target

[Service]
Type=simple
User=mailwarden
ExecStart=/usr/local/bin/mailwarden daemon --audit-log /var/lib/mailwarden/state/audit.jsonl --history /var/lib/mailwarden/state/history.db
Restart=on-failure
RestartSec=2
NoNewPrivileges=true
PrivateTmp=true
ProtectSystem=strict
ProtectHome=true
ReadWritePaths=/var/lib/mailwarden

[Install]
WantedBy=multi-user.target
`
}
