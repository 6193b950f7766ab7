package contract

// ArtifactFor 以年份原样拼接扩展名得到工件标识。
// 不做任何清洗：包含路径分隔符的年份会被 Writer 视作子路径（与源数据保持一致）。
func ArtifactFor(year Year, ext string) ArtifactID {
	return ArtifactID(string(year) + ext)
}
