package manifest

import (
	"path"
	"strings"
)

const (
	ConfigurationData   = "application/vnd.sun.star.configuration-data"
	ConfigurationSchema = "application/vnd.sun.star.configuration-schema"
	DialogLibrary       = "application/vnd.sun.star.dialog-library"
	BasicLibrary        = "application/vnd.sun.star.basic-library"
	PackageBundle       = "application/vnd.sun.star.package-bundle"
	UnoComponents       = "application/vnd.sun.star.uno-components"
	Description         = "application/vnd.sun.star.extension-description"
	OctetStream         = "application/octet-stream"

	componentPrefix   = "application/vnd.sun.star.uno-component"
	typeLibraryPrefix = "application/vnd.sun.star.uno-typelibrary"
	descriptionPrefix = "application/vnd.sun.star.package-bundle-description"
)

var (
	JavaComponent   = ComponentType("Java", "")
	PythonComponent = ComponentType("Python", "")
	NativeComponent = ComponentType("native", "")
	RDBTypeLibrary  = TypeLibraryType("RDB")
)

// rootNames are fixed names that only carry meaning at the package root.
var rootNames = map[string]string{
	"description.xml": Description,
}

// baseNames are fixed file names recognised at any depth.
var baseNames = map[string]string{
	"dialog.xlb": DialogLibrary,
	"script.xlb": BasicLibrary,
}

var extensions = map[string]string{
	".xcu":        ConfigurationData,
	".xcs":        ConfigurationSchema,
	".jar":        JavaComponent,
	".py":         PythonComponent,
	".so":         NativeComponent,
	".dll":        NativeComponent,
	".dylib":      NativeComponent,
	".rdb":        RDBTypeLibrary,
	".components": UnoComponents,
	".oxt":        PackageBundle,
	".xml":        "text/xml",
	".xba":        "text/xml",
	".xdl":        "text/xml",
	".txt":        "text/plain",
	".properties": "text/plain",
	".html":       "text/html",
	".htm":        "text/html",
	".png":        "image/png",
	".gif":        "image/gif",
	".jpg":        "image/jpeg",
	".jpeg":       "image/jpeg",
	".svg":        "image/svg+xml",
}

// Classify maps a normalized archive path to the media type recorded for it
// in a manifest. Fixed root names win over fixed base names, which win over
// the extension table; unknown files are generic binary data.
func Classify(archivePath string) string {
	if mediaType, ok := rootNames[archivePath]; ok {
		return mediaType
	}

	base := path.Base(archivePath)
	if mediaType, ok := baseNames[strings.ToLower(base)]; ok {
		return mediaType
	}
	if mediaType, ok := extensions[strings.ToLower(path.Ext(base))]; ok {
		return mediaType
	}
	return OctetStream
}

// ClassifierFunc adapts a plain function to the Classifier interface.
type ClassifierFunc func(archivePath string) string

func (f ClassifierFunc) Classify(archivePath string) string {
	return f(archivePath)
}

// DefaultClassifier is the table-driven Classify.
var DefaultClassifier Classifier = ClassifierFunc(Classify)

// ComponentType is the media type of a UNO component implemented in the
// given language, optionally restricted to a platform ("linux_x86_64").
func ComponentType(language, platform string) string {
	mediaType := componentPrefix + ";type=" + language
	if platform != "" {
		mediaType += ";platform=" + platform
	}
	return mediaType
}

// TypeLibraryType is the media type of a UNO type library ("RDB", "Java").
func TypeLibraryType(libType string) string {
	return typeLibraryPrefix + ";type=" + libType
}

// PackageDescriptionType is the media type of a localized package
// description text.
func PackageDescriptionType(locale string) string {
	if locale == "" {
		return descriptionPrefix
	}
	return descriptionPrefix + ";locale=" + locale
}

// IsJavaComponent reports whether entries of this media type are jars that
// may need runtime registration.
func IsJavaComponent(mediaType string) bool {
	return mediaType == JavaComponent || strings.HasPrefix(mediaType, JavaComponent+";")
}
