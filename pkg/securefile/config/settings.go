package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cloudconstruct/securefile/pkg/securefile"
)

// Settings bag keys as persisted by the host configuration layer.
const (
	KeyHint                          = "Hint"
	KeyAllowedExtensions             = "AllowedExtensions"
	KeyRequired                      = "Required"
	KeySecureDirectoryName           = "SecureDirectoryName"
	KeySecureBlobAccountName         = "SecureBlobAccountName"
	KeySecureSharedKey               = "SecureSharedKey"
	KeySecureBlobEndpoint            = "SecureBlobEndpoint"
	KeySharedAccessExpirationMinutes = "SharedAccessExpirationMinutes"
	KeyEncryptFile                   = "EncryptFile"
	KeyGenerateFileName              = "GenerateFileName"
	KeyURLType                       = "UrlType"
	KeyCustomSubfolder               = "CustomSubfolder"
	KeyCustom1                       = "Custom1"
	KeyCustom2                       = "Custom2"
	KeyCustom3                       = "Custom3"
)

// ParseSettings builds validated StorageSettings from the host's key/value
// settings bag. All type and enum errors surface here, at load time, rather
// than at use time.
func ParseSettings(values map[string]string) (securefile.StorageSettings, error) {
	var s securefile.StorageSettings
	var err error

	s.Hint = values[KeyHint]
	s.AllowedExtensions = values[KeyAllowedExtensions]
	s.DirectoryName = values[KeySecureDirectoryName]
	s.BlobAccountName = values[KeySecureBlobAccountName]
	s.BlobSharedKey = values[KeySecureSharedKey]
	s.BlobEndpoint = values[KeySecureBlobEndpoint]
	s.CustomSubfolder = values[KeyCustomSubfolder]
	s.Custom1 = values[KeyCustom1]
	s.Custom2 = values[KeyCustom2]
	s.Custom3 = values[KeyCustom3]

	if s.Required, err = parseBool(values, KeyRequired); err != nil {
		return securefile.StorageSettings{}, err
	}
	if s.EncryptFile, err = parseBool(values, KeyEncryptFile); err != nil {
		return securefile.StorageSettings{}, err
	}
	if s.GenerateFileName, err = parseBool(values, KeyGenerateFileName); err != nil {
		return securefile.StorageSettings{}, err
	}

	if v := values[KeySharedAccessExpirationMinutes]; v != "" {
		s.SharedAccessExpirationMinutes, err = strconv.Atoi(v)
		if err != nil {
			return securefile.StorageSettings{}, fmt.Errorf("%s: %w", KeySharedAccessExpirationMinutes, err)
		}
	}

	if s.URLType, err = parseURLType(values[KeyURLType]); err != nil {
		return securefile.StorageSettings{}, err
	}

	if err := validate(s); err != nil {
		return securefile.StorageSettings{}, err
	}
	return s, nil
}

func validate(s securefile.StorageSettings) error {
	if s.DirectoryName == "" {
		return fmt.Errorf("%s is required", KeySecureDirectoryName)
	}
	if s.SharedAccessExpirationMinutes < 0 {
		return fmt.Errorf("%s must not be negative", KeySharedAccessExpirationMinutes)
	}
	if s.URLType == securefile.URLTypeCustom && s.CustomSubfolder == "" {
		return fmt.Errorf("%s is required for a custom url type", KeyCustomSubfolder)
	}
	return nil
}

func parseBool(values map[string]string, key string) (bool, error) {
	v := values[key]
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(strings.ToLower(v))
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func parseURLType(v string) (securefile.URLType, error) {
	switch strings.ToLower(v) {
	case "", "standard", "0":
		return securefile.URLTypeStandard, nil
	case "uploaddate", "1":
		return securefile.URLTypeUploadDate, nil
	case "custom", "2":
		return securefile.URLTypeCustom, nil
	default:
		return 0, fmt.Errorf("%s: unknown value %q", KeyURLType, v)
	}
}
