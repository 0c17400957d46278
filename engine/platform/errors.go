package platform

import "github.com/cockroachdb/errors"

var errVulkanUnsupported = errors.New("vulkan is not supported by the installed drivers")
