// Package openssh implements the openssh secsh-filexfer extensions
// as described in https://github.com/openssh/openssh-portable/blob/master/PROTOCOL
package openssh

import (
	sshfx "github.com/fdist/sftpc/encoding/ssh/filexfer"
)

// Extension wire names.
const (
	ExtensionNamePOSIXRename = "posix-rename@openssh.com"
	ExtensionNameStatVFS     = "statvfs@openssh.com"
	ExtensionNameFStatVFS    = "fstatvfs@openssh.com"
	ExtensionNameHardlink    = "hardlink@openssh.com"
	ExtensionNameFSync       = "fsync@openssh.com"
	ExtensionNameLSetstat    = "lsetstat@openssh.com"
	ExtensionNameLimits      = "limits@openssh.com"
	ExtensionNameExpandPath  = "expand-path@openssh.com"

	// copy-data is defined by draft-ietf-secsh-filexfer-extensions-00,
	// and advertised without a domain suffix.
	ExtensionNameCopyData = "copy-data"
)

func extensionPair(name string) *sshfx.ExtensionPair {
	return &sshfx.ExtensionPair{
		Name: name,
		Data: "1",
	}
}

// ExtensionPOSIXRename returns an ExtensionPair suitable to append into an sshfx.VersionPacket.
func ExtensionPOSIXRename() *sshfx.ExtensionPair { return extensionPair(ExtensionNamePOSIXRename) }

// ExtensionStatVFS returns an ExtensionPair suitable to append into an sshfx.VersionPacket.
func ExtensionStatVFS() *sshfx.ExtensionPair { return extensionPair(ExtensionNameStatVFS) }

// ExtensionFStatVFS returns an ExtensionPair suitable to append into an sshfx.VersionPacket.
func ExtensionFStatVFS() *sshfx.ExtensionPair { return extensionPair(ExtensionNameFStatVFS) }

// ExtensionHardlink returns an ExtensionPair suitable to append into an sshfx.VersionPacket.
func ExtensionHardlink() *sshfx.ExtensionPair { return extensionPair(ExtensionNameHardlink) }

// ExtensionFSync returns an ExtensionPair suitable to append into an sshfx.VersionPacket.
func ExtensionFSync() *sshfx.ExtensionPair { return extensionPair(ExtensionNameFSync) }

// ExtensionLSetstat returns an ExtensionPair suitable to append into an sshfx.VersionPacket.
func ExtensionLSetstat() *sshfx.ExtensionPair { return extensionPair(ExtensionNameLSetstat) }

// ExtensionLimits returns an ExtensionPair suitable to append into an sshfx.VersionPacket.
func ExtensionLimits() *sshfx.ExtensionPair { return extensionPair(ExtensionNameLimits) }

// ExtensionExpandPath returns an ExtensionPair suitable to append into an sshfx.VersionPacket.
func ExtensionExpandPath() *sshfx.ExtensionPair { return extensionPair(ExtensionNameExpandPath) }
