package vigor

// DecodeBCD 將 BCD 壓縮字轉換為十進位數值
//
// 每個 nibble 依位置乘上 10 的次方後累加。A-F 的 nibble 不是合法 BCD，
// 但裝置偶爾會回傳，這裡照樣按位置累加而不拒絕。
func DecodeBCD(bcd uint16) int {
	place, decimal := 1, 0
	for bcd > 0 {
		nibble := int(bcd & 0xf)
		decimal += nibble * place
		bcd >>= 4
		place *= 10
	}
	return decimal
}

// EncodeBCD 將 0-9999 的十進位數值編碼為 BCD 字
// 超出範圍時只保留最低的四位數
func EncodeBCD(decimal int) uint16 {
	if decimal < 0 {
		decimal = -decimal
	}
	var bcd uint16
	for shift := 0; shift < 16; shift += 4 {
		bcd |= uint16(decimal%10) << shift
		decimal /= 10
	}
	return bcd
}
