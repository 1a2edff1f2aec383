//go:build windows

package mcraw

// desktopIniContents mirrors the original recording's Windows Explorer
// hint: it disables the "confirm file operation" prompt and keeps the
// generated folder in details/icon view. It only exists on Windows builds
// because it targets Explorer's folder customization mechanism.
const desktopIniContents = `[.ShellClassInfo]
ConfirmFileOp=0

[ViewState]
Mode=4
Vid={137E7700-3573-11CF-AE69-08002B2E1262}
FolderType=Generic

[{5984FFE0-28D4-11CF-AE66-08002B2E1262}]
Mode=4
LogicalViewMode=1
IconSize=16

[LocalizedFileNames]
`

// desktopIniEntryName is the fixed file name a VirtualFileSystem exposes
// for the static desktop.ini entry.
const desktopIniEntryName = "desktop.ini"

// HasStaticEntries reports whether this build emits any platform-static
// entries (desktop.ini on Windows, none elsewhere).
func HasStaticEntries() bool {
	return true
}

// StaticEntries returns the platform-static entries to prepend to a
// recording's entry list.
func StaticEntries() []Entry {
	return []Entry{
		{
			Type: EntryFile,
			Name: desktopIniEntryName,
			Size: uint64(len(desktopIniContents)),
			UserData: UserData{
				Kind: UserDataStatic,
			},
		},
	}
}

// ReadStaticEntry reads len bytes at pos from the named static entry, and
// reports whether name is a static entry at all.
func ReadStaticEntry(name string, pos, length uint64, dst []byte) (uint64, bool) {
	if name != desktopIniEntryName {
		return 0, false
	}
	total := uint64(len(desktopIniContents))
	if pos >= total {
		return 0, true
	}
	n := length
	if pos+n > total {
		n = total - pos
	}
	if uint64(len(dst)) < n {
		n = uint64(len(dst))
	}
	copy(dst[:n], desktopIniContents[pos:pos+n])
	return n, true
}
