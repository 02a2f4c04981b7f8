// media/types.go
package media

type AssetType string

const (
	AssetTypeScene   AssetType = "scene"
	AssetTypeCrop    AssetType = "component_crop"
	AssetTypeUnknown AssetType = "unknown"
)
